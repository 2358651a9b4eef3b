package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/gazette/internal/api"
	"github.com/pders01/gazette/internal/config"
	"github.com/pders01/gazette/internal/storage"
)

type stubSource struct {
	articles    []*storage.Article
	settings    storage.Settings
	articlesErr error
	settingsErr error
}

func (s stubSource) Articles(context.Context) ([]*storage.Article, error) {
	return s.articles, s.articlesErr
}

func (s stubSource) Settings(context.Context) (storage.Settings, error) {
	return s.settings, s.settingsErr
}

func (s stubSource) RecordView(context.Context, string) (*storage.Article, error) {
	return nil, errors.New("not used")
}

func setupStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBootstrap(t *testing.T) {
	src := stubSource{
		articles: []*storage.Article{{ID: "a"}},
		settings: storage.Settings{SiteName: "Gazette"},
	}

	snap := Bootstrap(context.Background(), src)
	require.NoError(t, snap.Err)
	assert.Len(t, snap.Articles, 1)
	assert.Equal(t, "Gazette", snap.Settings.SiteName)
}

func TestBootstrap_ArticlesFail(t *testing.T) {
	src := stubSource{
		articlesErr: errors.New("offline"),
		settings:    storage.Settings{SiteName: "Gazette"},
	}

	snap := Bootstrap(context.Background(), src)
	assert.ErrorContains(t, snap.Err, "loading articles")
	assert.NotNil(t, snap.Articles)
	assert.Empty(t, snap.Articles)
	assert.Equal(t, "Gazette", snap.Settings.SiteName)
}

func TestBootstrap_BothFail(t *testing.T) {
	src := stubSource{articlesErr: errors.New("a"), settingsErr: errors.New("s")}

	snap := Bootstrap(context.Background(), src)
	assert.ErrorContains(t, snap.Err, "loading articles")
	assert.ErrorContains(t, snap.Err, "loading settings")
	assert.Empty(t, snap.Articles)
	assert.Equal(t, storage.DefaultSettings(), snap.Settings)
}

func TestLocal(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.ReplaceArticles([]*storage.Article{
		{ID: "a", Title: "A", Category: "Tech"},
		{ID: "b", Title: "B", Category: "Food"},
	}))
	local := NewLocal(store)
	ctx := context.Background()

	articles, err := local.Articles(ctx)
	require.NoError(t, err)
	assert.Len(t, articles, 2)

	viewed, err := local.RecordView(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, viewed.Views)

	_, err = local.RecordView(ctx, "ghost")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	saved, err := local.SaveArticle(ctx, &storage.Article{Title: "New"})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID, "normalize assigns an id")

	articles, err = local.Articles(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, articles[0].ID)

	settings, err := local.RenameCategory(ctx, "Tech", "Technology")
	require.NoError(t, err)
	assert.NotNil(t, settings.NavCategories)

	require.NoError(t, local.DeleteArticle(ctx, "b"))
	articles, err = local.Articles(ctx)
	require.NoError(t, err)
	assert.Len(t, articles, 2)
}

func TestLocal_CanceledContext(t *testing.T) {
	local := NewLocal(setupStore(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := local.Articles(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRemote_RefreshesCache(t *testing.T) {
	views := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/articles":
			_ = json.NewEncoder(w).Encode(map[string]any{"articles": []map[string]any{
				{"id": "a", "title": "A", "category": "Tech"},
				{"id": "b", "title": "B", "category": "Tech"},
			}})
		case "/settings":
			_ = json.NewEncoder(w).Encode(map[string]any{"settings": map[string]any{"siteName": "Remote"}})
		case "/article-view":
			views++
			_ = json.NewEncoder(w).Encode(map[string]any{"article": map[string]any{"id": "a", "title": "A", "views": views}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := config.TestConfig()
	cfg.API.BaseURL = srv.URL
	store := setupStore(t)
	remote := NewRemote(api.NewClient(cfg), store)

	snap := Bootstrap(context.Background(), remote)
	require.NoError(t, snap.Err)
	assert.Len(t, snap.Articles, 2)

	cached, err := store.GetArticles()
	require.NoError(t, err)
	assert.Len(t, cached, 2)

	settings, err := store.GetSettings()
	require.NoError(t, err)
	assert.Equal(t, "Remote", settings.SiteName)

	article, err := remote.RecordView(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, article.Views)

	got, err := store.GetArticle("a")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)

	_, err = remote.RenameCategory(context.Background(), "Tech", "Tech")
	assert.ErrorIs(t, err, storage.ErrInvalidRename)
}

func TestRemote_OfflineFallsBackToEmpty(t *testing.T) {
	cfg := config.TestConfig()
	cfg.API.BaseURL = "http://127.0.0.1:1"
	remote := NewRemote(api.NewClient(cfg), nil)

	snap := Bootstrap(context.Background(), remote)
	assert.Error(t, snap.Err)
	assert.Empty(t, snap.Articles)
	assert.Equal(t, storage.DefaultSettings(), snap.Settings)
}
