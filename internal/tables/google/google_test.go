package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mibolsillo/internal/tables"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "sheet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestParseValues(t *testing.T) {
	values := [][]interface{}{
		{"Internal_ID", "Year-Month", "Value", "Limite_Total"},
		{float64(12), "2019-10", 1500000.5, nil},
		{float64(13), " 2019-11 ", 0.1},
		{},
		{"", ""},
	}
	rows := parseValues(values)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"12", "2019-10", "1500000.5", ""}, rows[1])
	assert.Equal(t, []string{"13", "2019-11", "0.1"}, rows[2])
}

func TestQuoteTab(t *testing.T) {
	assert.Equal(t, "'monthly_data'", quoteTab("monthly_data"))
	assert.Equal(t, "'Bob''s tab'", quoteTab("Bob's tab"))
}

func TestReadTable(t *testing.T) {
	var gotRange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, _ := url.PathUnescape(r.URL.EscapedPath())
		gotRange = path[strings.LastIndex(path, "/")+1:]
		assert.Equal(t, "UNFORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"payments!A1:C3","majorDimension":"ROWS","values":[["Internal_ID","Year-Month","Latency"],[1,"2019-10","On Time"]]}`))
	}))
	defer srv.Close()

	svc, err := gsheet.NewService(context.Background(),
		goption.WithHTTPClient(srv.Client()),
		goption.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)

	c := newWithService(svc, Config{SpreadsheetID: "abc", Tabs: map[tables.Name]string{tables.Payments: "payments"}})
	rows, err := c.ReadTable(context.Background(), tables.Payments)
	require.NoError(t, err)
	assert.Equal(t, "'payments'", gotRange)
	assert.Equal(t, [][]string{{"Internal_ID", "Year-Month", "Latency"}, {"1", "2019-10", "On Time"}}, rows)
}

func TestReadTable_NilService(t *testing.T) {
	c := &Client{}
	_, err := c.ReadTable(context.Background(), tables.Users)
	assert.Error(t, err)
}
