package main

import (
	"context"
	"fmt"

	"github.com/bilgisen/schoolpress/internal/archive"
	"github.com/bilgisen/schoolpress/internal/auth"
	"github.com/bilgisen/schoolpress/internal/cache"
	"github.com/bilgisen/schoolpress/internal/config"
	"github.com/bilgisen/schoolpress/internal/content"
	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/bilgisen/schoolpress/internal/sheets"
	"github.com/redis/go-redis/v9"
)

// deps is the wired application graph shared by serve and check.
type deps struct {
	redis     *redis.Client
	cache     cache.Store
	content   *content.Store
	directory *auth.SheetDirectory
	gate      *auth.Gate
	archive   archive.Archive
}

func setupLogger(cfg *config.Config) error {
	output := "stdout"
	if cfg.LogFile != "" {
		output = cfg.LogFile
	}
	return logger.Init(logger.Config{
		Level:  cfg.LogLevel,
		Output: output,
		Pretty: !cfg.IsProduction() && cfg.LogFile == "",
	})
}

func buildDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	log := logger.Get()
	d := &deps{}

	if cfg.CacheBackend == config.BackendRedis || cfg.SessionBackend == config.BackendRedis {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		d.redis = client
	}

	cacheOpts := cache.Options{TTL: cfg.CacheTTL, Enabled: cfg.CacheEnabled}
	switch cfg.CacheBackend {
	case config.BackendRedis:
		d.cache = cache.NewRedisStore(d.redis, cfg.RedisPrefix, cacheOpts)
	default:
		d.cache = cache.NewMemoryStore(cacheOpts, nil)
	}

	client := sheets.NewClient(sheets.Config{
		SheetID:       cfg.SheetsID,
		APIKey:        cfg.APIKey,
		SheetsBaseURL: cfg.SheetsBaseURL,
		DocsBaseURL:   cfg.DocsBaseURL,
		Timeout:       cfg.HTTPTimeout,
	})

	d.content = content.NewStore(client, client, d.cache, content.Options{
		SheetID:         cfg.SheetsID,
		APIKey:          cfg.APIKey,
		ArticlesRange:   cfg.ArticlesRange,
		DefaultImageURL: cfg.DefaultImageURL,
		Timeout:         cfg.HTTPTimeout,
	})

	var sessions auth.SessionStore
	switch cfg.SessionBackend {
	case config.BackendRedis:
		sessions = auth.NewRedisSessionStore(d.redis, cfg.RedisPrefix, cfg.SessionTTL)
	default:
		sessions = auth.NewMemorySessionStore(cfg.SessionTTL, nil)
	}

	var verifier auth.IdentityVerifier
	if cfg.GoogleClientID != "" {
		verifier = auth.NewTokenInfoVerifier(cfg.TokenInfoURL, cfg.GoogleClientID, cfg.HTTPTimeout)
	} else {
		if cfg.IsProduction() {
			d.Close()
			return nil, fmt.Errorf("GOOGLE_CLIENT_ID is required in production")
		}
		log.Warn().Msg("GOOGLE_CLIENT_ID not set: sign-in credentials are decoded without verification")
		verifier = auth.PayloadDecoder{}
	}

	d.directory = auth.NewSheetDirectory(client, cfg.UsersRange)
	d.gate = auth.NewGate(verifier, d.directory, sessions, auth.Options{
		AllowedDomain: cfg.AllowedEmailDomain,
		AdminEmail:    cfg.AdminEmail,
		Timeout:       cfg.HTTPTimeout,
	})

	switch cfg.ArchiveBackend {
	case config.BackendS3:
		arc, err := archive.NewS3Archive(ctx, archive.S3Config{
			Endpoint:  cfg.R2Endpoint,
			AccessKey: cfg.R2AccessKey,
			SecretKey: cfg.R2SecretKey,
			Bucket:    cfg.R2Bucket,
		})
		if err != nil {
			d.Close()
			return nil, err
		}
		d.archive = arc
	default:
		arc, err := archive.NewFileArchive(cfg.ArchivePath)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.archive = arc
	}

	log.Info().
		Str("cache", cfg.CacheBackend).
		Str("sessions", cfg.SessionBackend).
		Str("archive", cfg.ArchiveBackend).
		Bool("cache_enabled", cfg.CacheEnabled).
		Dur("cache_ttl", cfg.CacheTTL).
		Msg("Dependencies ready")
	return d, nil
}

func (d *deps) Close() {
	if d.cache != nil {
		if err := d.cache.Close(); err != nil {
			logger.Get().Error().Err(err).Msg("Error closing cache")
		}
	}
	if d.redis != nil {
		logger.Get().Info().Msg("Closing Redis client...")
		if err := d.redis.Close(); err != nil {
			logger.Get().Error().Err(err).Msg("Error closing Redis client")
		}
	}
}
