// Package feed renders the published articles as RSS and Atom.
package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/bilgisen/schoolpress/internal/content"
	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/gorilla/feeds"
)

// DefaultLimit caps the number of items in a feed.
const DefaultLimit = 20

// Site describes the publication behind the feed.
type Site struct {
	Title       string
	URL         string
	Description string
}

// Build assembles a feed of the newest articles, at most limit of them.
func Build(site Site, articles []models.Article, limit int, now time.Time) *feeds.Feed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	base := strings.TrimRight(site.URL, "/")

	feed := &feeds.Feed{
		Title:       site.Title,
		Link:        &feeds.Link{Href: base},
		Description: site.Description,
		Created:     now,
	}

	sorted := content.SortByDateDesc(articles)
	for _, a := range content.Window(sorted, "", limit) {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          fmt.Sprintf("%s/articles/%s", base, a.ID),
			Title:       a.Title,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/articles/%s", base, a.ID)},
			Author:      &feeds.Author{Name: a.Author},
			Description: a.Excerpt,
			Created:     a.Date.Time,
		})
	}
	if len(feed.Items) > 0 {
		feed.Updated = feed.Items[0].Created
	}
	return feed
}

// RSS renders the feed as RSS 2.0.
func RSS(feed *feeds.Feed) (string, error) {
	return feed.ToRss()
}

// Atom renders the feed as Atom 1.0.
func Atom(feed *feeds.Feed) (string, error) {
	return feed.ToAtom()
}
