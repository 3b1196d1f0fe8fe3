// Package content serves the article feed from the spreadsheet, memoized in a
// time-bounded cache.
package content

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/bilgisen/schoolpress/internal/cache"
	"github.com/bilgisen/schoolpress/internal/logger"
	"github.com/bilgisen/schoolpress/internal/models"
)

// RowFetcher reads a range of the articles spreadsheet.
type RowFetcher interface {
	FetchRows(ctx context.Context, sheetRange string) ([][]string, error)
}

// DocumentFetcher reads a structured document body.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, id string) (*models.Document, error)
}

// Options configure a Store.
type Options struct {
	SheetID         string
	APIKey          string
	ArticlesRange   string
	DefaultImageURL string
	// Timeout bounds every external call.
	Timeout time.Duration
	Now     func() time.Time
}

// Store fetches, normalizes and caches articles.
type Store struct {
	rows  RowFetcher
	docs  DocumentFetcher
	cache cache.Store
	opts  Options
	norm  Normalizer
}

// Stats is the cache introspection result.
type Stats struct {
	Size      int   `json:"size"`
	Enabled   bool  `json:"enabled"`
	TTLMillis int64 `json:"ttl"`
}

func NewStore(rows RowFetcher, docs DocumentFetcher, c cache.Store, opts Options) *Store {
	if opts.ArticlesRange == "" {
		opts.ArticlesRange = "Articles!A2:H1000"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Store{
		rows:  rows,
		docs:  docs,
		cache: c,
		opts:  opts,
		norm:  Normalizer{DefaultImageURL: opts.DefaultImageURL, Now: opts.Now},
	}
}

// GetAllArticles returns the normalized article list in sheet order.
func (s *Store) GetAllArticles(ctx context.Context) ([]models.Article, error) {
	log := logger.Get()

	var articles []models.Article
	if ok := s.cached(ctx, cache.KeyAllArticles, &articles); ok {
		return articles, nil
	}

	if err := s.checkConfig(); err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	rows, err := s.rows.FetchRows(fetchCtx, s.opts.ArticlesRange)
	if err != nil {
		log.Error().Err(err).Str("range", s.opts.ArticlesRange).Msg("Error fetching articles")
		return nil, &FetchError{Op: "articles", Err: err}
	}

	articles = s.norm.NormalizeRows(rows)
	log.Info().
		Int("rows", len(rows)).
		Int("articles", len(articles)).
		Dur("fetch_duration", time.Since(start)).
		Msg("Fetched articles")

	s.store(ctx, cache.KeyAllArticles, articles)
	return articles, nil
}

// GetFeaturedArticles returns at most one article flagged featured, in sheet order.
func (s *Store) GetFeaturedArticles(ctx context.Context) ([]models.Article, error) {
	articles, err := s.GetAllArticles(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range articles {
		if a.Featured {
			return []models.Article{a}, nil
		}
	}
	return []models.Article{}, nil
}

// GetArticlesByCategory returns the articles whose category equals category exactly.
func (s *Store) GetArticlesByCategory(ctx context.Context, category string) ([]models.Article, error) {
	return s.filter(ctx, func(a models.Article) bool { return a.Category == category })
}

// SearchArticles matches query case-insensitively against title, excerpt and author.
func (s *Store) SearchArticles(ctx context.Context, query string) ([]models.Article, error) {
	q := strings.ToLower(query)
	return s.filter(ctx, func(a models.Article) bool {
		return strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Excerpt), q) ||
			strings.Contains(strings.ToLower(a.Author), q)
	})
}

// GetArticle looks an article up by id.
func (s *Store) GetArticle(ctx context.Context, id string) (models.Article, error) {
	articles, err := s.GetAllArticles(ctx)
	if err != nil {
		return models.Article{}, err
	}
	for _, a := range articles {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Article{}, ErrArticleNotFound
}

// GetCategories returns the sorted distinct categories, cached on their own key.
func (s *Store) GetCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if ok := s.cached(ctx, cache.KeyCategories, &categories); ok {
		return categories, nil
	}

	articles, err := s.GetAllArticles(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(articles))
	categories = make([]string, 0)
	for _, a := range articles {
		if _, ok := seen[a.Category]; ok {
			continue
		}
		seen[a.Category] = struct{}{}
		categories = append(categories, a.Category)
	}
	slices.Sort(categories)

	s.store(ctx, cache.KeyCategories, categories)
	return categories, nil
}

// GetDocumentContent returns the plain text of a document, cached per reference.
func (s *Store) GetDocumentContent(ctx context.Context, ref string) (string, error) {
	key := cache.KeyDocumentContent(ref)

	var text string
	if ok := s.cached(ctx, key, &text); ok {
		return text, nil
	}

	if s.opts.APIKey == "" {
		return "", &FetchError{Op: "document " + ref, Err: &ConfigError{Missing: []string{"GOOGLE_API_KEY"}}}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	doc, err := s.docs.FetchDocument(fetchCtx, ref)
	if err != nil {
		logger.Get().Error().Err(err).Str("doc", ref).Msg("Error fetching document")
		return "", &FetchError{Op: "document " + ref, Err: err}
	}

	text = doc.PlainText()
	s.store(ctx, key, text)
	return text, nil
}

// ClearCache drops every cached entry.
func (s *Store) ClearCache(ctx context.Context) error {
	if err := s.cache.Clear(ctx); err != nil {
		return err
	}
	logger.Get().Info().Msg("Cache cleared")
	return nil
}

// GetCacheStats reports cache size and policy without side effects.
func (s *Store) GetCacheStats(ctx context.Context) (Stats, error) {
	n, err := s.cache.Len(ctx)
	if err != nil {
		return Stats{}, err
	}
	opts := s.cache.Options()
	return Stats{
		Size:      n,
		Enabled:   opts.Enabled,
		TTLMillis: opts.TTL.Milliseconds(),
	}, nil
}

func (s *Store) filter(ctx context.Context, keep func(models.Article) bool) ([]models.Article, error) {
	articles, err := s.GetAllArticles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Article, 0)
	for _, a := range articles {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) checkConfig() error {
	var missing []string
	if s.opts.SheetID == "" {
		missing = append(missing, "GOOGLE_SHEETS_ID")
	}
	if s.opts.APIKey == "" {
		missing = append(missing, "GOOGLE_API_KEY")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

// cached reports a cache hit. A broken cache backend degrades to a miss.
func (s *Store) cached(ctx context.Context, key string, dest any) bool {
	ok, err := cache.GetJSON(ctx, s.cache, key, dest)
	if err != nil {
		logger.Get().Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return false
	}
	if ok {
		logger.Get().Debug().Str("key", key).Msg("Cache hit")
	}
	return ok
}

func (s *Store) store(ctx context.Context, key string, value any) {
	if err := cache.SetJSON(ctx, s.cache, key, value); err != nil {
		logger.Get().Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
