package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/bilgisen/schoolpress/internal/models"
)

// Column layout of the articles sheet.
const (
	colTitle = iota
	colAuthor
	colCategory
	colDate
	colDocRef
	colFeatured
	colExcerpt
	colImageURL
)

const (
	defaultCategory = "Uncategorized"
	docURLFormat    = "https://docs.google.com/document/d/%s/edit?usp=sharing"
)

// Sheet editors type dates by hand; accept the common spellings.
var dateLayouts = []string{
	models.DateLayout,
	"1/2/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Normalizer turns raw sheet rows into Articles.
type Normalizer struct {
	DefaultImageURL string
	Now             func() time.Time
}

// NormalizeRows converts rows into Articles, dropping every row without a
// document reference. IDs come from the row position in the sheet, so they
// are stable across refetches as long as rows are not reordered.
func (n Normalizer) NormalizeRows(rows [][]string) []models.Article {
	articles := make([]models.Article, 0, len(rows))
	for i, row := range rows {
		article, ok := n.NormalizeRow(i, row)
		if !ok {
			continue
		}
		articles = append(articles, article)
	}
	return articles
}

// NormalizeRow converts a single row; ok is false when the row has no document reference.
func (n Normalizer) NormalizeRow(index int, row []string) (models.Article, bool) {
	docID, contentURL := parseDocRef(cell(row, colDocRef))
	if docID == "" {
		return models.Article{}, false
	}

	category := cell(row, colCategory)
	if category == "" {
		category = defaultCategory
	}
	image := cell(row, colImageURL)
	if image == "" {
		image = n.DefaultImageURL
	}

	return models.Article{
		ID:         fmt.Sprintf("article_%d", index),
		Title:      cell(row, colTitle),
		Author:     cell(row, colAuthor),
		Category:   category,
		Date:       n.parseDate(cell(row, colDate)),
		DocID:      docID,
		ContentURL: contentURL,
		Featured:   strings.EqualFold(cell(row, colFeatured), "true"),
		Excerpt:    cell(row, colExcerpt),
		ImageURL:   image,
	}, true
}

// parseDate dates a blank cell today. A filled cell that matches no layout
// gets the zero date so it sorts after every dated article.
func (n Normalizer) parseDate(s string) models.Date {
	if s == "" {
		now := time.Now
		if n.Now != nil {
			now = n.Now
		}
		return models.NewDate(now())
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.NewDate(t)
		}
	}
	logger.Get().Warn().Str("date", s).Msg("Unrecognized article date")
	return models.Date{}
}

// parseDocRef accepts either a bare document id or a full document URL.
func parseDocRef(ref string) (id, contentURL string) {
	if ref == "" {
		return "", ""
	}
	if i := strings.Index(ref, "/document/d/"); i >= 0 {
		rest := ref[i+len("/document/d/"):]
		if j := strings.IndexAny(rest, "/?#"); j >= 0 {
			rest = rest[:j]
		}
		if rest == "" {
			return "", ""
		}
		return rest, ref
	}
	return ref, fmt.Sprintf(docURLFormat, ref)
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
