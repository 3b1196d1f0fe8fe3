package api

import (
	"time"

	"github.com/bilgisen/schoolpress/internal/archive"
	"github.com/bilgisen/schoolpress/internal/auth"
	"github.com/bilgisen/schoolpress/internal/config"
	"github.com/bilgisen/schoolpress/internal/content"
	"github.com/bilgisen/schoolpress/internal/feed"
	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/bilgisen/schoolpress/internal/middleware"
	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/feeds"
)

// Version is reported by the health endpoint.
var Version = "1.0.0"

// DefaultWindow is the number of articles listed under the lead story.
const DefaultWindow = 6

type Handlers struct {
	config    *config.Config
	content   *content.Store
	gate      *auth.Gate
	directory auth.Directory
	archive   archive.Archive
	now       func() time.Time
}

func NewHandlers(cfg *config.Config, store *content.Store, gate *auth.Gate, directory auth.Directory, arc archive.Archive) *Handlers {
	return &Handlers{
		config:    cfg,
		content:   store,
		gate:      gate,
		directory: directory,
		archive:   arc,
		now:       time.Now,
	}
}

type articlesQuery struct {
	Category string `query:"category" validate:"omitempty,max=100"`
	Q        string `query:"q" validate:"omitempty,max=200"`
	Featured bool   `query:"featured"`
}

type latestQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=50"`
}

// HealthCheck handles the /health endpoint
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
		"time":    h.now().Format(time.RFC3339),
	})
}

// ListArticles handles GET /api/v1/articles, newest first.
func (h *Handlers) ListArticles(c *fiber.Ctx) error {
	q := middleware.Query[articlesQuery](c)
	if q == nil {
		q = &articlesQuery{}
	}
	ctx := c.UserContext()

	var (
		articles []models.Article
		err      error
	)
	switch {
	case q.Featured:
		articles, err = h.content.GetFeaturedArticles(ctx)
	case q.Q != "":
		articles, err = h.content.SearchArticles(ctx, q.Q)
	case q.Category != "":
		articles, err = h.content.GetArticlesByCategory(ctx, q.Category)
	default:
		articles, err = h.content.GetAllArticles(ctx)
	}
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"total": len(articles),
		"items": content.SortByDateDesc(articles),
	})
}

// FrontPage handles GET /api/v1/articles/latest: the lead story plus the
// newest articles after it.
func (h *Handlers) FrontPage(c *fiber.Ctx) error {
	limit := DefaultWindow
	if q := middleware.Query[latestQuery](c); q != nil && q.Limit > 0 {
		limit = q.Limit
	}

	articles, err := h.content.GetAllArticles(c.UserContext())
	if err != nil {
		return err
	}

	sorted := content.SortByDateDesc(articles)
	lead, ok := content.SelectFeatured(sorted)
	var featured *models.Article
	if ok {
		featured = &lead
	}

	return c.JSON(fiber.Map{
		"featured": featured,
		"articles": content.Window(sorted, lead.ID, limit),
	})
}

// FeaturedArticle handles GET /api/v1/articles/featured. Without a flagged
// article the most recent one stands in.
func (h *Handlers) FeaturedArticle(c *fiber.Ctx) error {
	articles, err := h.content.GetAllArticles(c.UserContext())
	if err != nil {
		return err
	}
	lead, ok := content.SelectFeatured(content.SortByDateDesc(articles))
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "No articles published yet")
	}
	return c.JSON(fiber.Map{
		"article":  lead,
		"fallback": !lead.Featured,
	})
}

// GetArticle handles GET /api/v1/articles/:id
func (h *Handlers) GetArticle(c *fiber.Ctx) error {
	article, err := h.content.GetArticle(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(article)
}

// GetArticleContent handles GET /api/v1/articles/:id/content
func (h *Handlers) GetArticleContent(c *fiber.Ctx) error {
	ctx := c.UserContext()
	article, err := h.content.GetArticle(ctx, c.Params("id"))
	if err != nil {
		return err
	}
	text, err := h.content.GetDocumentContent(ctx, article.DocID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"article": article,
		"content": text,
	})
}

// GetCategories handles GET /api/v1/categories
func (h *Handlers) GetCategories(c *fiber.Ctx) error {
	categories, err := h.content.GetCategories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": categories})
}

// GetDocument handles GET /api/v1/documents/:ref
func (h *Handlers) GetDocument(c *fiber.Ctx) error {
	ref := c.Params("ref")
	text, err := h.content.GetDocumentContent(c.UserContext(), ref)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"ref":     ref,
		"content": text,
	})
}

// RSSFeed handles GET /feed.rss
func (h *Handlers) RSSFeed(c *fiber.Ctx) error {
	return h.syndicate(c, "application/rss+xml; charset=utf-8", feed.RSS)
}

// AtomFeed handles GET /feed.atom
func (h *Handlers) AtomFeed(c *fiber.Ctx) error {
	return h.syndicate(c, "application/atom+xml; charset=utf-8", feed.Atom)
}

func (h *Handlers) syndicate(c *fiber.Ctx, contentType string, render func(*feeds.Feed) (string, error)) error {
	articles, err := h.content.GetAllArticles(c.UserContext())
	if err != nil {
		return err
	}

	site := feed.Site{
		Title:       h.config.SiteTitle,
		URL:         h.config.SiteURL,
		Description: "Latest stories from " + h.config.SiteTitle,
	}
	out, err := render(feed.Build(site, articles, feed.DefaultLimit, h.now()))
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error rendering feed")
		return err
	}

	c.Set(fiber.HeaderContentType, contentType)
	return c.SendString(out)
}
