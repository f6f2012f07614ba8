package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"bookkeeper/internal/core"
	ports "bookkeeper/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads the tabs of one spreadsheet as import row-sets.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// tabs restricts the read to these titles; empty reads every tab.
	tabs []string
}

// Ensure interface conformance
var _ ports.RowSetReader = (*Client)(nil)

// NewFromEnv creates a read-only Sheets client for spreadsheetID using
// service account credentials from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context, spreadsheetID string, tabs ...string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	creds, err := credentialsFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, spreadsheetID, tabs...), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID string, tabs ...string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID, tabs: tabs}
}

func credentialsFromEnv(ctx context.Context) ([]byte, error) {
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ReadRowSets returns one row-set per tab, in tab order, named by tab title.
// Cells are read unformatted so numeric epochs and amounts keep every digit.
func (c *Client) ReadRowSets(ctx context.Context) ([]core.RowSet, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	titles := c.tabs
	if len(titles) == 0 {
		var err error
		if titles, err = c.tabTitles(ctx); err != nil {
			return nil, err
		}
	}
	if len(titles) == 0 {
		return nil, nil
	}

	ranges := make([]string, len(titles))
	for i, t := range titles {
		ranges[i] = quoteTab(t)
	}
	resp, err := c.svc.Spreadsheets.Values.BatchGet(c.spreadsheetID).
		Ranges(ranges...).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read tabs of %s: %w", c.spreadsheetID, err)
	}
	if len(resp.ValueRanges) != len(titles) {
		return nil, fmt.Errorf("read tabs of %s: got %d ranges for %d tabs", c.spreadsheetID, len(resp.ValueRanges), len(titles))
	}

	sets := make([]core.RowSet, len(titles))
	for i, vr := range resp.ValueRanges {
		sets[i] = core.RowSet{Name: titles[i], Rows: toRows(vr.Values)}
	}

	slog.InfoContext(ctx, "Spreadsheet tabs read", "spreadsheet_id", c.spreadsheetID, "tabs", len(sets))
	return sets, nil
}

func (c *Client) tabTitles(ctx context.Context) ([]string, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet %s: %w", c.spreadsheetID, err)
	}
	var titles []string
	for _, sh := range ss.Sheets {
		if sh == nil || sh.Properties == nil {
			continue
		}
		titles = append(titles, sh.Properties.Title)
	}
	return titles, nil
}
