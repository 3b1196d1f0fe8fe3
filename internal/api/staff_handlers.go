package api

import (
	"strings"

	"github.com/bilgisen/schoolpress/internal/archive"
	"github.com/bilgisen/schoolpress/internal/auth"
	"github.com/bilgisen/schoolpress/internal/content"
	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/bilgisen/schoolpress/internal/middleware"
	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/gofiber/fiber/v2"
)

// WriterDashboard handles GET /api/v1/staff/writers
func (h *Handlers) WriterDashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	session := middleware.SessionFrom(c)

	articles, err := h.content.GetAllArticles(ctx)
	if err != nil {
		return err
	}
	categories, err := h.content.GetCategories(ctx)
	if err != nil {
		return err
	}

	mine := make([]models.Article, 0)
	for _, a := range articles {
		if session.Name != "" && strings.EqualFold(a.Author, session.Name) {
			mine = append(mine, a)
		}
	}
	return c.JSON(fiber.Map{
		"user":        session,
		"categories":  categories,
		"my_articles": content.SortByDateDesc(mine),
	})
}

// EditorDashboard handles GET /api/v1/staff/editors
func (h *Handlers) EditorDashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	articles, err := h.content.GetAllArticles(ctx)
	if err != nil {
		return err
	}
	categories, err := h.content.GetCategories(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"user":       middleware.SessionFrom(c),
		"articles":   content.SortByDateDesc(articles),
		"categories": categories,
	})
}

// AdminDashboard handles GET /api/v1/staff/admin
func (h *Handlers) AdminDashboard(c *fiber.Ctx) error {
	ctx := c.UserContext()
	stats, err := h.directoryStats(c)
	if err != nil {
		return err
	}
	cacheStats, err := h.content.GetCacheStats(ctx)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"user":      middleware.SessionFrom(c),
		"directory": stats,
		"cache":     cacheStats,
	})
}

// CacheStats handles GET /api/v1/admin/cache
func (h *Handlers) CacheStats(c *fiber.Ctx) error {
	stats, err := h.content.GetCacheStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// ClearCache handles DELETE /api/v1/admin/cache
func (h *Handlers) ClearCache(c *fiber.Ctx) error {
	if err := h.content.ClearCache(c.UserContext()); err != nil {
		return err
	}
	logger.Get().Info().
		Str("by", middleware.SessionFrom(c).Email).
		Msg("Cache cleared from admin")
	return c.JSON(fiber.Map{"status": "cleared"})
}

// DirectoryStats handles GET /api/v1/admin/directory
func (h *Handlers) DirectoryStats(c *fiber.Ctx) error {
	stats, err := h.directoryStats(c)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// CreateSnapshot handles POST /api/v1/admin/snapshots
func (h *Handlers) CreateSnapshot(c *fiber.Ctx) error {
	ctx := c.UserContext()
	articles, err := h.content.GetAllArticles(ctx)
	if err != nil {
		return err
	}

	snap, err := archive.NewSnapshot(content.SortByDateDesc(articles), h.now())
	if err != nil {
		return err
	}
	info, err := h.archive.Save(ctx, snap)
	if err != nil {
		logger.Get().Error().Err(err).Str("id", snap.ID).Msg("Error saving snapshot")
		return err
	}

	logger.Get().Info().
		Str("id", info.ID).
		Int("articles", len(snap.Articles)).
		Int64("size", info.Size).
		Msg("Snapshot saved")
	return c.Status(fiber.StatusCreated).JSON(info)
}

// ListSnapshots handles GET /api/v1/admin/snapshots
func (h *Handlers) ListSnapshots(c *fiber.Ctx) error {
	infos, err := h.archive.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"total": len(infos),
		"items": infos,
	})
}

// GetSnapshot handles GET /api/v1/admin/snapshots/:id
func (h *Handlers) GetSnapshot(c *fiber.Ctx) error {
	snap, err := h.archive.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(snap)
}

func (h *Handlers) directoryStats(c *fiber.Ctx) (auth.DirectoryStats, error) {
	entries, err := h.directory.List(c.UserContext())
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error listing directory")
		return auth.DirectoryStats{}, fiber.NewError(fiber.StatusBadGateway, "Could not load the staff directory. Please try again.")
	}
	return auth.Summarize(entries), nil
}
