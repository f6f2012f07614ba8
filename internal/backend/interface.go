package backend

import (
	"context"

	"bookkeeper/internal/sheets"
)

// SourceResult contains the import source and a description for logs
type SourceResult struct {
	Source      sheets.RowSetReader
	Description string
}

// Factory creates import sources based on configuration
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*SourceResult, error)
}

// Config holds configuration for import source creation
type Config struct {
	Type SourceType

	// CSV specific; Files wins over Directory.
	Files     []string
	Directory string

	// Google Sheets specific; no tabs means every tab.
	GoogleSpreadsheetID string
	GoogleSheetTabs     []string
}

// SourceType represents the kind of import source
type SourceType string

const (
	CSVSource    SourceType = "csv"
	SheetsSource SourceType = "sheets"
)

func (t SourceType) String() string {
	return string(t)
}

// IsValid returns true if the source type is known
func (t SourceType) IsValid() bool {
	switch t {
	case CSVSource, SheetsSource:
		return true
	default:
		return false
	}
}
