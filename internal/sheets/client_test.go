package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		SheetID:       "sheet-123",
		APIKey:        "key-abc",
		SheetsBaseURL: srv.URL + "/v4/spreadsheets",
		DocsBaseURL:   srv.URL + "/v1/documents",
		Timeout:       2 * time.Second,
	})
}

func TestFetchRows(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-123/values/Articles!A2:H1000", r.URL.Path)
		assert.Equal(t, "key-abc", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"range":          "Articles!A2:H1000",
			"majorDimension": "ROWS",
			"values": [][]string{
				{"Title", "Author", "News", "2025-10-01", "doc-1", "TRUE", "Excerpt"},
				{"Other"},
			},
		})
	})

	rows, err := client.FetchRows(context.Background(), "Articles!A2:H1000")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "doc-1", rows[0][4])
	assert.Equal(t, []string{"Other"}, rows[1])
}

func TestFetchRowsEmptySheet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"range":"Users!A2:D1000","majorDimension":"ROWS"}`))
	})

	rows, err := client.FetchRows(context.Background(), "Users!A2:D1000")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchRowsErrorStatus(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	})

	_, err := client.FetchRows(context.Background(), "Articles!A2:H1000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "API key not valid")
	assert.Equal(t, 1, calls, "no automatic retry")
}

func TestFetchDocument(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/documents/doc-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"documentId": "doc-1",
			"title": "Story",
			"body": {"content": [
				{"sectionBreak": {}},
				{"paragraph": {"elements": [{"textRun": {"content": "Line one\n"}}]}},
				{"paragraph": {"elements": [{"textRun": {"content": "Line two"}}]}}
			]}
		}`))
	})

	doc, err := client.FetchDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Story", doc.Title)
	assert.Equal(t, "Line one\n\nLine two", doc.PlainText())
}

func TestFetchHonoursContextCancel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.FetchDocument(ctx, "slow")
	assert.Error(t, err)
}
