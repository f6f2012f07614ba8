package backend

import (
	"context"
	"fmt"

	applog "bookkeeper/internal/log"
	"bookkeeper/internal/sheets/csvfile"
	gsheet "bookkeeper/internal/sheets/google"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Default(applog.ComponentSheets)
	}
	return &DefaultFactory{logger: logger}
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (*SourceResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case CSVSource:
		return f.createCSVSource(config)
	case SheetsSource:
		return f.createSheetsSource(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", config.Type)
	}
}

func (f *DefaultFactory) createCSVSource(config Config) (*SourceResult, error) {
	if len(config.Files) > 0 {
		f.logger.Info("Initialized CSV source", "files", len(config.Files))
		return &SourceResult{
			Source:      csvfile.New(config.Files...),
			Description: fmt.Sprintf("%d csv files", len(config.Files)),
		}, nil
	}

	src, err := csvfile.NewFromDir(config.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV directory: %w", err)
	}
	if src.Len() == 0 {
		return nil, fmt.Errorf("no csv files in %s", config.Directory)
	}
	f.logger.Info("Initialized CSV source", "directory", config.Directory, "files", src.Len())
	return &SourceResult{Source: src, Description: "csv directory " + config.Directory}, nil
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context, config Config) (*SourceResult, error) {
	cli, err := gsheet.NewFromEnv(ctx, config.GoogleSpreadsheetID, config.GoogleSheetTabs...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets source",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"tabs", len(config.GoogleSheetTabs))
	return &SourceResult{Source: cli, Description: "spreadsheet " + config.GoogleSpreadsheetID}, nil
}
