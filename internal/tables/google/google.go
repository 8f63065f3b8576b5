package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"mibolsillo/internal/tables"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet, its credentials and the tab holding each
// table. Tabs not listed use DefaultTabs.
type Config struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	Tabs            map[tables.Name]string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          map[tables.Name]string
}

// Ensure interface conformance
var _ tables.Reader = (*Client)(nil)

// DefaultTabs mirrors the CSV file names without extension.
func DefaultTabs() map[tables.Name]string {
	return map[tables.Name]string{
		tables.Transactions: "trans_clustered",
		tables.Payments:     "payments_clustered",
		tables.Users:        "pivot_user_info_clustered",
		tables.Monthly:      "monthly_data",
	}
}

// New creates a Sheets table source authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newWithService(svc, cfg), nil
}

func newWithService(svc *gsheet.Service, cfg Config) *Client {
	tabs := DefaultTabs()
	for name, tab := range cfg.Tabs {
		if strings.TrimSpace(tab) != "" {
			tabs[name] = tab
		}
	}
	return &Client{svc: svc, spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID), tabs: tabs}
}

// newSheetsService initializes a read-only Sheets Service using Service
// Account credentials, inline or from a file. GOOGLE_APPLICATION_CREDENTIALS
// is honoured when neither is configured.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ReadTable reads the whole tab of the table. Numbers are requested
// unformatted so locale formatting in the sheet does not leak into cells.
func (c *Client) ReadTable(ctx context.Context, name tables.Name) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	tab, ok := c.tabs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tables.ErrTableNotFound, name)
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteTab(tab)).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", tab, err)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("%w: %s (tab %q is empty)", tables.ErrTableNotFound, name, tab)
	}
	return parseValues(resp.Values), nil
}
