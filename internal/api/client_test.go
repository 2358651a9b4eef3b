package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/pders01/gazette/internal/config"
	"github.com/pders01/gazette/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.TestConfig()
	cfg.API.BaseURL = srv.URL + "/"
	c := NewClient(cfg)
	t.Cleanup(c.httpClient.CloseIdleConnections)
	return c
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Articles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/articles", r.URL.Path)
		assert.Equal(t, "gazette-test/1.0", r.UserAgent())
		writeJSON(w, http.StatusOK, map[string]any{
			"articles": []map[string]any{
				{"id": "a1", "title": "First", "category": "Tech", "author": "Ana", "views": 3},
				{"id": "a2", "author": "ChatGPT"},
			},
		})
	})

	articles, err := c.Articles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "First", articles[0].Title)
	assert.Equal(t, 3, articles[0].Views)
	assert.Equal(t, "Untitled Article", articles[1].Title)
	assert.Equal(t, storage.DefaultCategory, articles[1].Category)
	assert.Equal(t, "Redacción AGTI SA", articles[1].Author)
}

func TestClient_Article(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a 1", r.URL.Query().Get("id"))
		writeJSON(w, http.StatusOK, map[string]any{"article": map[string]any{"id": "a 1", "title": "Spaced"}})
	})

	a, err := c.Article(context.Background(), "a 1")
	require.NoError(t, err)
	assert.Equal(t, "Spaced", a.Title)
}

func TestClient_RecordView(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/article-view", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"article": map[string]any{"id": r.URL.Query().Get("id"), "views": 8}})
	})

	a, err := c.RecordView(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, 8, a.Views)
}

func TestClient_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Article not found"})
	})

	_, err := c.RecordView(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Equal(t, "Article not found", se.Message)
	assert.Contains(t, se.Error(), "POST /article-view: 404 Article not found")
}

func TestClient_ServerErrorWithoutJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.Articles(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "boom", se.Message)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestClient_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})

	_, err := c.Articles(context.Background())
	assert.ErrorContains(t, err, "failed to decode")
}

func TestClient_MissingArticleInEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := c.Article(context.Background(), "x")
	assert.Error(t, err)
}

func TestClient_SaveArticle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in storage.Article
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "draft", in.ID)
		assert.Equal(t, "Body", in.Content)

		writeJSON(w, http.StatusOK, map[string]any{"article": in})
	})

	saved, err := c.SaveArticle(context.Background(), &storage.Article{ID: "draft", Title: "T", Excerpt: "E", Content: "Body"})
	require.NoError(t, err)
	assert.Equal(t, "draft", saved.ID)
}

func TestClient_DeleteArticle(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/articles-delete", r.URL.Path)
		assert.Equal(t, "a1", r.URL.Query().Get("id"))
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.DeleteArticle(context.Background(), "a1"))
}

func TestClient_Settings(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"settings": map[string]any{
			"siteName":      "Gazette",
			"navCategories": []string{"Tech"},
			"homeLayout":    "carousel",
		}})
	})

	s, err := c.Settings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Gazette", s.SiteName)
	assert.Equal(t, []string{"Tech"}, s.NavCategories)
	assert.Equal(t, storage.LayoutHeroMasonry, s.HomeLayout)
	assert.NotNil(t, s.FooterLinks)
}

func TestClient_RenameCategory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/categories", r.URL.Path)

		var req RenameRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, RenameRequest{OldName: "Tech", NewName: "Technology"}, req)

		writeJSON(w, http.StatusOK, map[string]any{"settings": map[string]any{"navCategories": []string{"Technology"}}})
	})

	s, err := c.RenameCategory(context.Background(), "Tech", "Technology")
	require.NoError(t, err)
	assert.Equal(t, []string{"Technology"}, s.NavCategories)
	assert.Equal(t, "Mi Blog", s.SiteName)
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	cfg := config.TestConfig()
	cfg.API.RateLimit = 0.001
	cfg.API.Burst = 1
	c := NewClient(cfg)
	// drain the single token
	require.True(t, c.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Articles(ctx)
	assert.ErrorContains(t, err, "rate limiter")
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	cfg := config.TestConfig()
	cfg.API.BaseURL = "https://blog.example/.netlify/functions///"
	assert.Equal(t, "https://blog.example/.netlify/functions", NewClient(cfg).BaseURL())
}
