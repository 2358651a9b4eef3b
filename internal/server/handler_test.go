package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefix = "/.netlify/functions"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return New(openTestDB(t), prefix)
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, prefix+path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, prefix+path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]json.RawMessage
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func errorOf(t *testing.T, out map[string]json.RawMessage) string {
	t.Helper()
	var msg string
	require.NoError(t, json.Unmarshal(out["error"], &msg))
	return msg
}

const articleBody = `{"id":"a1","title":"Hello","excerpt":"Short","content":"# Body","category":"Tech","views":2}`

func TestHandler_Options(t *testing.T) {
	h := newTestHandler(t)

	for path, methods := range map[string]string{
		"/articles":        "GET,POST,OPTIONS",
		"/articles-delete": "DELETE,OPTIONS",
		"/article-view":    "POST,OPTIONS",
		"/settings":        "GET,PUT,OPTIONS",
		"/categories":      "PUT,OPTIONS",
	} {
		rec, _ := do(t, h, http.MethodOptions, path, "")
		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
		assert.Equal(t, methods, rec.Header().Get("Access-Control-Allow-Methods"), path)
		assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"), path)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	rec, out := do(t, h, http.MethodPatch, "/articles", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed", errorOf(t, out))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec, _ = do(t, h, http.MethodGet, "/categories", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandler_ArticleLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec, out := do(t, h, http.MethodPost, "/articles", articleBody)
	require.Equal(t, http.StatusOK, rec.Code)
	var saved struct {
		ID       string `json:"id"`
		ReadTime int    `json:"readTime"`
		Views    int    `json:"views"`
	}
	require.NoError(t, json.Unmarshal(out["article"], &saved))
	assert.Equal(t, "a1", saved.ID)
	assert.Equal(t, 5, saved.ReadTime)
	assert.Equal(t, 2, saved.Views)

	rec, out = do(t, h, http.MethodGet, "/articles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(out["articles"], &list))
	assert.Len(t, list, 1)

	rec, _ = do(t, h, http.MethodGet, "/articles?id=a1", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, out = do(t, h, http.MethodPost, "/article-view?id=a1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(out["article"], &saved))
	assert.Equal(t, 3, saved.Views)

	rec, _ = do(t, h, http.MethodDelete, "/articles-delete?id=a1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, out = do(t, h, http.MethodGet, "/articles?id=a1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Article not found", errorOf(t, out))
}

func TestHandler_BadRequests(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name, method, path, body string
		code                     int
		message                  string
	}{
		{"missing body", http.MethodPost, "/articles", "", 400, "Missing request body"},
		{"invalid json", http.MethodPost, "/articles", "{nope", 400, "Invalid JSON body"},
		{"missing fields", http.MethodPost, "/articles", `{"id":"x","title":"t"}`, 400, "Missing required article fields"},
		{"delete without id", http.MethodDelete, "/articles-delete", "", 400, "Missing article id"},
		{"view without id", http.MethodPost, "/article-view", "", 400, "Missing article id"},
		{"view unknown", http.MethodPost, "/article-view?id=ghost", "", 404, "Article not found"},
		{"settings absent", http.MethodGet, "/settings", "", 404, "Settings not found"},
		{"rename blank", http.MethodPut, "/categories", `{"oldName":"  ","newName":"x"}`, 400, "Both oldName and newName are required"},
		{"rename not string", http.MethodPut, "/categories", `{"oldName":5,"newName":"x"}`, 400, "Both oldName and newName are required"},
		{"rename same", http.MethodPut, "/categories", `{"oldName":"Tech","newName":" Tech "}`, 400, "New name must be different from old name"},
		{"rename without settings", http.MethodPut, "/categories", `{"oldName":"Tech","newName":"Science"}`, 404, "Settings not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.message, errorOf(t, out))
		})
	}
}

func TestHandler_SettingsAndRename(t *testing.T) {
	h := newTestHandler(t)

	body := `{"siteName":"Gazette","navCategories":["Tech","Food"],"footerLinks":"oops","homeLayout":"hero_list"}`
	rec, out := do(t, h, http.MethodPut, "/settings", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var settings struct {
		SiteName      string   `json:"siteName"`
		NavCategories []string `json:"navCategories"`
		FooterLinks   []any    `json:"footerLinks"`
		HomeLayout    string   `json:"homeLayout"`
	}
	require.NoError(t, json.Unmarshal(out["settings"], &settings))
	assert.Equal(t, "Gazette", settings.SiteName)
	assert.Equal(t, "hero_list", settings.HomeLayout)
	assert.NotNil(t, settings.FooterLinks)
	assert.Empty(t, settings.FooterLinks)

	rec, _ = do(t, h, http.MethodPost, "/articles", articleBody)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out = do(t, h, http.MethodPut, "/categories", `{"oldName":" Tech ","newName":"Technology"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(out["settings"], &settings))
	assert.Equal(t, []string{"Technology", "Food"}, settings.NavCategories)

	rec, out = do(t, h, http.MethodGet, "/articles?id=a1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var article struct {
		Category string `json:"category"`
	}
	require.NoError(t, json.Unmarshal(out["article"], &article))
	assert.Equal(t, "Technology", article.Category)
}

func TestHandler_NoDatabase(t *testing.T) {
	h := New(nil, prefix)

	rec, out := do(t, h, http.MethodGet, "/articles", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Database not configured", errorOf(t, out))

	rec, _ = do(t, h, http.MethodOptions, "/articles", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHandler_Healthz(t *testing.T) {
	h := New(nil, prefix)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
