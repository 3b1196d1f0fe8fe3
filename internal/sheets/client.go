// Package sheets talks to the spreadsheet values API and the document API
// that back the newspaper's content and staff directory.
package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/go-resty/resty/v2"
)

// Config describes how to reach the data services.
type Config struct {
	SheetID       string
	APIKey        string
	SheetsBaseURL string
	DocsBaseURL   string
	Timeout       time.Duration
}

// Client fetches sheet rows and documents. It never retries: every retry is
// left to the user reloading the page.
type Client struct {
	client  *resty.Client
	sheetID string
	apiKey  string
	sheets  string
	docs    string
}

type valuesResponse struct {
	Range          string     `json:"range"`
	MajorDimension string     `json:"majorDimension"`
	Values         [][]string `json:"values"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(0).
			SetHeader("Accept", "application/json"),
		sheetID: cfg.SheetID,
		apiKey:  cfg.APIKey,
		sheets:  cfg.SheetsBaseURL,
		docs:    cfg.DocsBaseURL,
	}
}

// FetchRows returns the cell values of sheetRange (A1 notation, e.g.
// "Articles!A2:H1000") as rows of text. Trailing empty cells are omitted by
// the service, so rows may be ragged.
func (c *Client) FetchRows(ctx context.Context, sheetRange string) ([][]string, error) {
	var result valuesResponse
	var apiErr apiError

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"sheet": c.sheetID,
			"range": sheetRange,
		}).
		SetQueryParam("key", c.apiKey).
		SetResult(&result).
		SetError(&apiErr).
		Get(c.sheets + "/{sheet}/values/{range}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch range %s: %w", sheetRange, err)
	}
	if resp.IsError() {
		return nil, statusError("range "+sheetRange, resp.StatusCode(), apiErr)
	}

	return result.Values, nil
}

// FetchDocument returns the structured body of a document.
func (c *Client) FetchDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	var apiErr apiError

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("doc", id).
		SetQueryParam("key", c.apiKey).
		SetResult(&doc).
		SetError(&apiErr).
		Get(c.docs + "/{doc}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, statusError("document "+id, resp.StatusCode(), apiErr)
	}

	return &doc, nil
}

func statusError(what string, code int, apiErr apiError) error {
	if apiErr.Error.Message != "" {
		return fmt.Errorf("unexpected status code %d for %s: %s", code, what, apiErr.Error.Message)
	}
	return fmt.Errorf("unexpected status code %d for %s", code, what)
}
