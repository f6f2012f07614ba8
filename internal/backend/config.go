package backend

import (
	"errors"
	"fmt"

	"bookkeeper/internal/config"
)

// FromAppConfig builds the source config from command-line choices, falling
// back to the spreadsheet settings of the application config. Explicit files
// or a directory select CSV.
func FromAppConfig(appConfig *config.Config, files []string, dir string) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	if len(files) > 0 || dir != "" {
		return Config{Type: CSVSource, Files: files, Directory: dir}, nil
	}
	return Config{
		Type:                SheetsSource,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		GoogleSheetTabs:     appConfig.GoogleSheetTabs,
	}, nil
}

// Validate validates the source configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid source type: %q", c.Type)
	}

	switch c.Type {
	case CSVSource:
		if len(c.Files) == 0 && c.Directory == "" {
			return errors.New("csv source needs files or a directory")
		}
	case SheetsSource:
		if c.GoogleSpreadsheetID == "" {
			return errors.New("sheets source needs a spreadsheet id")
		}
	}
	return nil
}

// GetSourceTypeStrings returns all valid source type strings
func GetSourceTypeStrings() []string {
	return []string{CSVSource.String(), SheetsSource.String()}
}
