package content

import (
	"slices"

	"github.com/bilgisen/schoolpress/internal/models"
)

// The Store returns articles in sheet order. Callers that want "latest first"
// sort explicitly with these helpers.

// SortByDateDesc returns a copy of articles ordered newest first. Articles
// sharing a date keep their sheet order.
func SortByDateDesc(articles []models.Article) []models.Article {
	sorted := slices.Clone(articles)
	slices.SortStableFunc(sorted, func(a, b models.Article) int {
		return b.Date.Compare(a.Date.Time)
	})
	return sorted
}

// SelectFeatured picks the lead article from a date-sorted list: the featured
// article nearest the top, else the most recent one.
func SelectFeatured(sorted []models.Article) (models.Article, bool) {
	for _, a := range sorted {
		if a.Featured {
			return a, true
		}
	}
	if len(sorted) > 0 {
		return sorted[0], true
	}
	return models.Article{}, false
}

// Window returns up to limit articles of sorted, skipping the one with skipID.
func Window(sorted []models.Article, skipID string, limit int) []models.Article {
	if limit <= 0 {
		return []models.Article{}
	}
	out := make([]models.Article, 0, min(limit, len(sorted)))
	for _, a := range sorted {
		if len(out) >= limit {
			break
		}
		if a.ID == skipID {
			continue
		}
		out = append(out, a)
	}
	return out
}
