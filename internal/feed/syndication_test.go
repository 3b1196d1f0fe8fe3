package feed

import (
	"strconv"
	"testing"
	"time"

	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) models.Date {
	return models.NewDate(time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC))
}

func TestBuildOrdersNewestFirst(t *testing.T) {
	articles := []models.Article{
		{ID: "article_2", Title: "Older", Author: "Mike Chen", Date: day(1)},
		{ID: "article_3", Title: "Newest", Author: "Sarah Johnson", Date: day(3), Excerpt: "Latest news."},
		{ID: "article_4", Title: "Middle", Date: day(2)},
	}
	now := time.Date(2025, 10, 5, 9, 0, 0, 0, time.UTC)

	feed := Build(Site{Title: "The Paper", URL: "https://paper.example/"}, articles, 2, now)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "Newest", feed.Items[0].Title)
	assert.Equal(t, "Middle", feed.Items[1].Title)
	assert.Equal(t, "https://paper.example/articles/article_3", feed.Items[0].Link.Href)
	assert.Equal(t, day(3).Time, feed.Updated)
}

func TestRenderRSSAndAtom(t *testing.T) {
	articles := make([]models.Article, 0, 30)
	for i := 1; i <= 30; i++ {
		articles = append(articles, models.Article{ID: "article_" + strconv.Itoa(i+1), Title: "Story " + strconv.Itoa(i), Date: day(1)})
	}
	feed := Build(Site{Title: "The Paper", URL: "https://paper.example"}, articles, 0, time.Now())
	assert.Len(t, feed.Items, DefaultLimit)

	rss, err := RSS(feed)
	require.NoError(t, err)
	assert.Contains(t, rss, "<rss")
	assert.Contains(t, rss, "<title>The Paper</title>")

	atom, err := Atom(feed)
	require.NoError(t, err)
	assert.Contains(t, atom, "http://www.w3.org/2005/Atom")
	assert.Contains(t, atom, "Story 1")
}
