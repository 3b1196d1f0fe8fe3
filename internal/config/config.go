package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend names accepted by CACHE_BACKEND, SESSION_BACKEND and ARCHIVE_BACKEND.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendFile   = "file"
	BackendS3     = "s3"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port            string        `json:"port"`
	Env             string        `json:"env"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	HTTPTimeout     time.Duration `json:"http_timeout"`

	// Content source (spreadsheet + documents)
	SheetsID        string `json:"sheets_id"`
	APIKey          string `json:"-"`
	SheetsBaseURL   string `json:"sheets_base_url"`
	DocsBaseURL     string `json:"docs_base_url"`
	ArticlesRange   string `json:"articles_range"`
	UsersRange      string `json:"users_range"`
	DefaultImageURL string `json:"default_image_url"`

	// Access control
	AllowedEmailDomain string        `json:"allowed_email_domain"`
	AdminEmail         string        `json:"admin_email"`
	GoogleClientID     string        `json:"google_client_id"`
	TokenInfoURL       string        `json:"token_info_url"`
	SessionBackend     string        `json:"session_backend"`
	SessionTTL         time.Duration `json:"session_ttl"`
	SessionCookie      string        `json:"session_cookie"`

	// Cache configuration
	CacheBackend string        `json:"cache_backend"`
	CacheTTL     time.Duration `json:"cache_ttl"`
	CacheEnabled bool          `json:"cache_enabled"`
	RedisURL     string        `json:"redis_url"`
	RedisPrefix  string        `json:"redis_prefix"`

	// Snapshot archive; R2 is reached through its S3-compatible API
	ArchiveBackend string `json:"archive_backend"`
	ArchivePath    string `json:"archive_path"`
	R2Endpoint     string `json:"r2_endpoint"`
	R2AccessKey    string `json:"-"`
	R2SecretKey    string `json:"-"`
	R2Bucket       string `json:"r2_bucket"`

	// Syndication
	SiteTitle string `json:"site_title"`
	SiteURL   string `json:"site_url"`

	// Logging
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// Load loads configuration from environment variables and validates it
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv reads the configuration from the process environment without validating it.
func FromEnv() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("APP_ENV", "development"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),

		SheetsID:        getEnv("GOOGLE_SHEETS_ID", ""),
		APIKey:          getEnv("GOOGLE_API_KEY", ""),
		SheetsBaseURL:   getEnv("GOOGLE_SHEETS_BASE_URL", "https://sheets.googleapis.com/v4/spreadsheets"),
		DocsBaseURL:     getEnv("GOOGLE_DOCS_BASE_URL", "https://docs.googleapis.com/v1/documents"),
		ArticlesRange:   getEnv("ARTICLES_RANGE", "Articles!A2:H1000"),
		UsersRange:      getEnv("USERS_RANGE", "Users!A2:D1000"),
		DefaultImageURL: getEnv("DEFAULT_IMAGE_URL", "/static/default-article.jpg"),

		AllowedEmailDomain: getEnv("ALLOWED_EMAIL_DOMAIN", "pps.net"),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		TokenInfoURL:       getEnv("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo"),
		SessionBackend:     getEnv("SESSION_BACKEND", BackendMemory),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 12*time.Hour),
		SessionCookie:      getEnv("SESSION_COOKIE", "schoolnewspaper_user"),

		CacheBackend: getEnv("CACHE_BACKEND", BackendMemory),
		CacheTTL:     time.Duration(getEnvAsInt64("CACHE_DURATION_MS", 3600000)) * time.Millisecond, // 1 hour
		CacheEnabled: getEnvAsBool("CACHE_ENABLED", true),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RedisPrefix:  getEnv("REDIS_PREFIX", "schoolpress:"),

		ArchiveBackend: getEnv("ARCHIVE_BACKEND", BackendFile),
		ArchivePath:    getEnv("ARCHIVE_PATH", "./data/snapshots"),
		R2Endpoint:     getEnv("R2_ENDPOINT", ""),
		R2AccessKey:    getEnv("R2_ACCESS_KEY", ""),
		R2SecretKey:    getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2Bucket:       getEnv("R2_BUCKET", "schoolpress"),

		SiteTitle: getEnv("SITE_TITLE", "The School Newspaper"),
		SiteURL:   getEnv("SITE_URL", "http://localhost:8080"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// Validate checks structural settings. Missing content-source credentials are
// not an error here: the content layer reports them per request.
func (c *Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("CACHE_DURATION_MS must not be negative, got %v", c.CacheTTL))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.HTTPTimeout))
	}
	if !oneOf(c.CacheBackend, BackendMemory, BackendRedis) {
		errs = append(errs, fmt.Errorf("CACHE_BACKEND %q: want memory or redis", c.CacheBackend))
	}
	if !oneOf(c.SessionBackend, BackendMemory, BackendRedis) {
		errs = append(errs, fmt.Errorf("SESSION_BACKEND %q: want memory or redis", c.SessionBackend))
	}
	switch c.ArchiveBackend {
	case BackendFile:
		if c.ArchivePath == "" {
			errs = append(errs, errors.New("ARCHIVE_PATH must not be empty"))
		}
	case BackendS3:
		if c.R2Endpoint == "" || c.R2AccessKey == "" || c.R2SecretKey == "" || c.R2Bucket == "" {
			errs = append(errs, errors.New("s3 archive needs R2_ENDPOINT, R2_ACCESS_KEY, R2_SECRET_ACCESS_KEY and R2_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("ARCHIVE_BACKEND %q: want file or s3", c.ArchiveBackend))
	}
	if strings.Contains(c.AllowedEmailDomain, "@") {
		errs = append(errs, fmt.Errorf("ALLOWED_EMAIL_DOMAIN %q must not contain '@'", c.AllowedEmailDomain))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// Helper functions for environment variable handling
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(name string, defaultVal int64) int64 {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %d", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %t", name, err, defaultVal)
		return defaultVal
	}
	return value
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Invalid %s value: %v, using default: %v", name, err, defaultVal)
		return defaultVal
	}
	return value
}
