package auth

import (
	"context"
	"strings"

	"github.com/bilgisen/schoolpress/internal/models"
)

// RowFetcher reads a range of the directory spreadsheet.
type RowFetcher interface {
	FetchRows(ctx context.Context, sheetRange string) ([][]string, error)
}

// Directory resolves staff emails to directory entries.
type Directory interface {
	// Lookup returns nil, nil when email is not listed.
	Lookup(ctx context.Context, email string) (*models.DirectoryEntry, error)
	List(ctx context.Context) ([]models.DirectoryEntry, error)
}

// SheetDirectory reads [email, name, role, approved] rows from the spreadsheet.
type SheetDirectory struct {
	rows       RowFetcher
	sheetRange string
}

func NewSheetDirectory(rows RowFetcher, sheetRange string) *SheetDirectory {
	if sheetRange == "" {
		sheetRange = "Users!A2:D1000"
	}
	return &SheetDirectory{rows: rows, sheetRange: sheetRange}
}

func (d *SheetDirectory) Lookup(ctx context.Context, email string) (*models.DirectoryEntry, error) {
	entries, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Email, email) {
			return &e, nil
		}
	}
	return nil, nil
}

func (d *SheetDirectory) List(ctx context.Context) ([]models.DirectoryEntry, error) {
	rows, err := d.rows.FetchRows(ctx, d.sheetRange)
	if err != nil {
		return nil, err
	}
	entries := make([]models.DirectoryEntry, 0, len(rows))
	for _, row := range rows {
		email := column(row, 0)
		if email == "" {
			continue
		}
		entries = append(entries, models.DirectoryEntry{
			Email:    email,
			Name:     column(row, 1),
			Role:     models.ParseRole(column(row, 2)),
			Approved: strings.EqualFold(column(row, 3), "true"),
		})
	}
	return entries, nil
}

// DirectoryStats summarizes the staff directory for the admin dashboard.
type DirectoryStats struct {
	Total            int                 `json:"total"`
	ByRole           map[models.Role]int `json:"by_role"`
	Editors          int                 `json:"editors"`
	Writers          int                 `json:"writers"`
	PendingApprovals int                 `json:"pending_approvals"`
}

// Summarize counts entries per role and those awaiting approval.
func Summarize(entries []models.DirectoryEntry) DirectoryStats {
	stats := DirectoryStats{Total: len(entries), ByRole: make(map[models.Role]int)}
	for _, e := range entries {
		stats.ByRole[e.Role]++
		if !e.Approved {
			stats.PendingApprovals++
		}
	}
	stats.Editors = stats.ByRole[models.RoleEditor]
	stats.Writers = stats.ByRole[models.RoleWriter]
	return stats
}

func column(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
