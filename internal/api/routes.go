package api

import (
	"time"

	"github.com/bilgisen/schoolpress/internal/middleware"
	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewApp creates the fiber app with the shared error handler and global middleware.
func NewApp(httpTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "schoolpress",
		ReadTimeout:           httpTimeout,
		WriteTimeout:          httpTimeout,
		IdleTimeout:           120 * time.Second,
		ErrorHandler:          middleware.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	return app
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, h *Handlers) {
	app.Use(middleware.NewSession(middleware.SessionConfig{
		Gate:       h.gate,
		CookieName: h.config.SessionCookie,
	}))

	app.Get("/health", h.HealthCheck)
	app.Get("/feed.rss", h.RSSFeed)
	app.Get("/feed.atom", h.AtomFeed)

	// API group with versioning
	api := app.Group("/api/v1")

	articles := api.Group("/articles")
	{
		articles.Get("", middleware.ValidateQuery[articlesQuery](), h.ListArticles)
		articles.Get("/latest", middleware.ValidateQuery[latestQuery](), h.FrontPage)
		articles.Get("/featured", h.FeaturedArticle)
		articles.Get("/:id", h.GetArticle)
		articles.Get("/:id/content", h.GetArticleContent)
	}
	api.Get("/categories", h.GetCategories)
	api.Get("/documents/:ref", h.GetDocument)

	authGroup := api.Group("/auth")
	{
		authGroup.Post("/login", middleware.ValidateBody[loginRequest](), h.Login)
		authGroup.Post("/logout", h.Logout)
		authGroup.Get("/session", h.CurrentSession)
		authGroup.Post("/refresh", h.RefreshSession)
	}

	staff := api.Group("/staff")
	{
		staff.Get("/writers", middleware.RequireRole(h.gate, models.RoleWriter), h.WriterDashboard)
		staff.Get("/editors", middleware.RequireRole(h.gate, models.RoleEditor), h.EditorDashboard)
		staff.Get("/admin", middleware.RequireRole(h.gate, models.RoleAdmin), h.AdminDashboard)
	}

	admin := api.Group("/admin", middleware.AdminOnly(h.gate))
	{
		admin.Get("/cache", h.CacheStats)
		admin.Delete("/cache", h.ClearCache)
		admin.Get("/directory", h.DirectoryStats)
		admin.Post("/snapshots", h.CreateSnapshot)
		admin.Get("/snapshots", h.ListSnapshots)
		admin.Get("/snapshots/:id", h.GetSnapshot)
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
