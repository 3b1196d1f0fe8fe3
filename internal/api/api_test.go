package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bilgisen/schoolpress/internal/archive"
	"github.com/bilgisen/schoolpress/internal/auth"
	"github.com/bilgisen/schoolpress/internal/cache"
	"github.com/bilgisen/schoolpress/internal/config"
	"github.com/bilgisen/schoolpress/internal/content"
	"github.com/bilgisen/schoolpress/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	articlesRange = "Articles!A2:H1000"
	usersRange    = "Users!A2:D1000"
)

type sheetStub struct {
	ranges map[string][][]string
	err    error
}

func (s *sheetStub) FetchRows(_ context.Context, sheetRange string) ([][]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ranges[sheetRange], nil
}

func (s *sheetStub) FetchDocument(_ context.Context, id string) (*models.Document, error) {
	if id != "doc-robots" {
		return nil, errors.New("unexpected status code 404")
	}
	return &models.Document{
		DocumentID: id,
		Body: &models.Body{Content: []models.StructuralElement{
			{Paragraph: &models.Paragraph{Elements: []models.ParagraphElement{
				{TextRun: &models.TextRun{Content: "The robotics team "}},
				{TextRun: &models.TextRun{Content: "won."}},
			}}},
		}},
	}, nil
}

// emailVerifier treats the credential as the signed-in email address.
type emailVerifier struct{}

func (emailVerifier) Verify(_ context.Context, credential string) (*auth.Identity, error) {
	if !strings.Contains(credential, "@") {
		return nil, auth.ErrInvalidCredential
	}
	return &auth.Identity{Email: credential}, nil
}

type testServer struct {
	app   *fiber.App
	sheet *sheetStub
	cfg   *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	sheet := &sheetStub{ranges: map[string][][]string{
		articlesRange: {
			{"Student Council Initiatives", "Sarah Johnson", "Campus News", "2025-10-02", "doc-council", "false", "A plan to improve student life."},
			{"Robotics Team Advances", "Mike Chen", "Sports & Activities", "2025-10-01", "doc-robots", "TRUE", "First place at regionals."},
			{"Fall Musical Auditions", "Emily Rodriguez", "Arts & Culture", "2025-09-30", "doc-musical", "false", "Auditions open Monday."},
			{"Draft Without Doc", "Ghost", "Campus News", "2025-10-04", ""},
		},
		usersRange: {
			{"a@school.edu", "A Name", "Editor", "true"},
			{"mike@school.edu", "Mike Chen", "Writer", "true"},
			{"p@school.edu", "Pat Pending", "Writer", "false"},
			{"boss@school.edu", "Boss", "Admin", "true"},
		},
	}}

	cfg := &config.Config{
		SheetsID:           "sheet-1",
		APIKey:             "key-1",
		ArticlesRange:      articlesRange,
		UsersRange:         usersRange,
		AllowedEmailDomain: "school.edu",
		SessionTTL:         time.Hour,
		SessionCookie:      "schoolnewspaper_user",
		HTTPTimeout:        5 * time.Second,
		SiteTitle:          "The Paper",
		SiteURL:            "https://paper.example",
	}

	store := content.NewStore(sheet, sheet,
		cache.NewMemoryStore(cache.Options{TTL: time.Minute, Enabled: true}, nil),
		content.Options{SheetID: cfg.SheetsID, APIKey: cfg.APIKey, ArticlesRange: articlesRange})
	directory := auth.NewSheetDirectory(sheet, usersRange)
	gate := auth.NewGate(emailVerifier{}, directory, auth.NewMemorySessionStore(cfg.SessionTTL, nil), auth.Options{
		AllowedDomain: cfg.AllowedEmailDomain,
	})
	arc, err := archive.NewFileArchive(t.TempDir())
	require.NoError(t, err)

	app := NewApp(cfg.HTTPTimeout)
	SetupRoutes(app, NewHandlers(cfg, store, gate, directory, arc))
	return &testServer{app: app, sheet: sheet, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *testServer) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/auth/login", `{"credential":"`+email+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == s.cfg.SessionCookie {
			assert.True(t, c.HttpOnly)
			return c
		}
	}
	t.Fatalf("no session cookie for %s", email)
	return nil
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestListArticlesNewestFirst(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/api/v1/articles", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Total int              `json:"total"`
		Items []models.Article `json:"items"`
	}
	decode(t, resp, &body)
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Items, 3)
	assert.Equal(t, "Student Council Initiatives", body.Items[0].Title)
	assert.Equal(t, "Fall Musical Auditions", body.Items[2].Title)
}

func TestListArticlesFilters(t *testing.T) {
	s := newTestServer(t)

	var body struct {
		Items []models.Article `json:"items"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/v1/articles?category=Arts%20%26%20Culture", ""), &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Fall Musical Auditions", body.Items[0].Title)

	decode(t, s.do(t, http.MethodGet, "/api/v1/articles?q=mike", ""), &body)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Mike Chen", body.Items[0].Author)

	decode(t, s.do(t, http.MethodGet, "/api/v1/articles?featured=true", ""), &body)
	require.Len(t, body.Items, 1)
	assert.True(t, body.Items[0].Featured)
}

func TestFrontPage(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/api/v1/articles/latest?limit=5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Featured *models.Article `json:"featured"`
		Articles []models.Article `json:"articles"`
	}
	decode(t, resp, &body)
	require.NotNil(t, body.Featured)
	assert.Equal(t, "Robotics Team Advances", body.Featured.Title)
	require.Len(t, body.Articles, 2)
	assert.Equal(t, "Student Council Initiatives", body.Articles[0].Title)
	assert.Equal(t, "Fall Musical Auditions", body.Articles[1].Title)

	resp = s.do(t, http.MethodGet, "/api/v1/articles/latest?limit=500", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestFeaturedFallsBackToMostRecent(t *testing.T) {
	s := newTestServer(t)
	s.sheet.ranges[articlesRange][1][5] = "false"

	var body struct {
		Article  models.Article `json:"article"`
		Fallback bool           `json:"fallback"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/v1/articles/featured", ""), &body)
	assert.Equal(t, "Student Council Initiatives", body.Article.Title)
	assert.True(t, body.Fallback)
}

func TestArticleContent(t *testing.T) {
	s := newTestServer(t)

	var body struct {
		Article models.Article `json:"article"`
		Content string         `json:"content"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/v1/articles/article_1/content", ""), &body)
	assert.Equal(t, "Robotics Team Advances", body.Article.Title)
	assert.Equal(t, "The robotics team won.", body.Content)

	resp := s.do(t, http.MethodGet, "/api/v1/articles/article_99", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/documents/doc-missing", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestCategories(t *testing.T) {
	s := newTestServer(t)

	var body struct {
		Items []string `json:"items"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/v1/categories", ""), &body)
	assert.Equal(t, []string{"Arts & Culture", "Campus News", "Sports & Activities"}, body.Items)
}

func TestContentErrorsMapToStatus(t *testing.T) {
	s := newTestServer(t)
	s.sheet.err = errors.New("connection refused")

	resp := s.do(t, http.MethodGet, "/api/v1/articles", "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "Could not load content. Please try again.", body["error"])
}

func TestFeeds(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/feed.rss", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "application/rss+xml")
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Robotics Team Advances")

	resp = s.do(t, http.MethodGet, "/feed.atom", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "application/atom+xml")
}

func TestEditorLoginGatesStaffViews(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "a@school.edu")

	resp := s.do(t, http.MethodGet, "/api/v1/staff/writers", "", cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/staff/editors", "", cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/staff/admin", "", cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "Admin access required", body["error"])

	var session models.Session
	decode(t, s.do(t, http.MethodGet, "/api/v1/auth/session", "", cookie), &session)
	assert.Equal(t, models.RoleEditor, session.Role)
	assert.Equal(t, "a@school.edu", session.Email)
}

func TestWriterDashboardListsOwnArticles(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "mike@school.edu")

	var body struct {
		MyArticles []models.Article `json:"my_articles"`
	}
	resp := s.do(t, http.MethodGet, "/api/v1/staff/writers", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &body)
	require.Len(t, body.MyArticles, 1)
	assert.Equal(t, "Robotics Team Advances", body.MyArticles[0].Title)

	resp = s.do(t, http.MethodGet, "/api/v1/staff/editors", "", cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestStaffViewsRequireSession(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, http.MethodGet, "/api/v1/staff/writers", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/auth/session", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/staff/writers", "", &http.Cookie{Name: s.cfg.SessionCookie, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"outside domain", `{"credential":"a@gmail.com"}`, http.StatusForbidden, "Must use school email (@school.edu)"},
		{"pending approval", `{"credential":"p@school.edu"}`, http.StatusForbidden, "Your account is pending approval. Contact your administrator."},
		{"not registered", `{"credential":"x@school.edu"}`, http.StatusForbidden, "Your email must be added to the system. Contact your administrator."},
		{"rejected credential", `{"credential":"garbage"}`, http.StatusUnauthorized, "Login failed. Please try again."},
		{"missing credential", `{}`, http.StatusUnprocessableEntity, "Validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, http.MethodPost, "/api/v1/auth/login", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Empty(t, resp.Cookies())

			var body map[string]any
			decode(t, resp, &body)
			assert.Equal(t, tt.reason, body["error"])
		})
	}
}

func TestLogoutForgetsSession(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "a@school.edu")

	resp := s.do(t, http.MethodPost, "/api/v1/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"cookies"`, resp.Header.Get("Clear-Site-Data"))

	cleared := map[string]bool{}
	for _, c := range resp.Cookies() {
		cleared[c.Name] = c.Value == ""
	}
	assert.True(t, cleared[s.cfg.SessionCookie])
	assert.True(t, cleared["g_state"])

	resp = s.do(t, http.MethodGet, "/api/v1/staff/writers", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshEndsRevokedSession(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "a@school.edu")

	s.sheet.ranges[usersRange][0][3] = "false"
	resp := s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/auth/session", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginReplacesPriorSession(t *testing.T) {
	s := newTestServer(t)
	first := s.login(t, "mike@school.edu")

	resp := s.do(t, http.MethodPost, "/api/v1/auth/login", `{"credential":"a@school.edu"}`, first)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = s.do(t, http.MethodGet, "/api/v1/auth/session", "", first)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "the replaced session is dropped")
}

func TestRefreshDuringDirectoryOutageKeepsSession(t *testing.T) {
	s := newTestServer(t)
	cookie := s.login(t, "a@school.edu")

	s.sheet.err = errors.New("dial tcp: connection refused")
	resp := s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", cookie)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body map[string]any
	decode(t, resp, &body)
	assert.Equal(t, "Could not reach the staff directory. Please try again.", body["error"])

	s.sheet.err = nil
	var session models.Session
	resp = s.do(t, http.MethodGet, "/api/v1/auth/session", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &session)
	assert.Equal(t, models.RoleEditor, session.Role)
}

func TestAdminOperations(t *testing.T) {
	s := newTestServer(t)
	editor := s.login(t, "a@school.edu")
	admin := s.login(t, "boss@school.edu")

	resp := s.do(t, http.MethodGet, "/api/v1/admin/cache", "", editor)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Warm the cache.
	s.do(t, http.MethodGet, "/api/v1/articles", "")

	var stats content.Stats
	decode(t, s.do(t, http.MethodGet, "/api/v1/admin/cache", "", admin), &stats)
	assert.True(t, stats.Enabled)
	assert.Equal(t, int64(60000), stats.TTLMillis)
	assert.Equal(t, 1, stats.Size)

	resp = s.do(t, http.MethodDelete, "/api/v1/admin/cache", "", admin)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, s.do(t, http.MethodGet, "/api/v1/admin/cache", "", admin), &stats)
	assert.Zero(t, stats.Size)

	var dir auth.DirectoryStats
	decode(t, s.do(t, http.MethodGet, "/api/v1/admin/directory", "", admin), &dir)
	assert.Equal(t, 4, dir.Total)
	assert.Equal(t, 1, dir.Editors)
	assert.Equal(t, 2, dir.Writers)
	assert.Equal(t, 1, dir.PendingApprovals)

	resp = s.do(t, http.MethodPost, "/api/v1/admin/snapshots", "", admin)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var info archive.SnapshotInfo
	decode(t, resp, &info)
	assert.NotEmpty(t, info.ID)

	var list struct {
		Total int                    `json:"total"`
		Items []archive.SnapshotInfo `json:"items"`
	}
	decode(t, s.do(t, http.MethodGet, "/api/v1/admin/snapshots", "", admin), &list)
	assert.Equal(t, 1, list.Total)

	var snap archive.Snapshot
	decode(t, s.do(t, http.MethodGet, "/api/v1/admin/snapshots/"+info.ID, "", admin), &snap)
	assert.Len(t, snap.Articles, 3)

	resp = s.do(t, http.MethodGet, "/api/v1/admin/snapshots/missing", "", admin)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownEndpoint(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
