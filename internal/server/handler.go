// Package server serves the blog functions (articles, views, settings and
// category renames) over HTTP, backed by sqlite.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/storage"
)

const maxBodyBytes = 4 << 20

// Handler routes the functions. A nil db answers every call with 500.
type Handler struct {
	db     *DB
	router chi.Router
}

// New builds the functions router mounted under prefix (e.g.
// "/.netlify/functions"). An empty prefix mounts at the root.
func New(db *DB, prefix string) *Handler {
	h := &Handler{db: db}

	fn := chi.NewRouter()
	fn.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	fn.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	fn.Route("/articles", func(r chi.Router) {
		r.Use(cors(http.MethodGet, http.MethodPost), h.requireDB)
		r.Get("/", h.getArticles)
		r.Post("/", h.saveArticle)
	})
	fn.Route("/articles-delete", func(r chi.Router) {
		r.Use(cors(http.MethodDelete), h.requireDB)
		r.Delete("/", h.deleteArticle)
	})
	fn.Route("/article-view", func(r chi.Router) {
		r.Use(cors(http.MethodPost), h.requireDB)
		r.Post("/", h.recordView)
	})
	fn.Route("/settings", func(r chi.Router) {
		r.Use(cors(http.MethodGet, http.MethodPut), h.requireDB)
		r.Get("/", h.getSettings)
		r.Put("/", h.saveSettings)
	})
	fn.Route("/categories", func(r chi.Router) {
		r.Use(cors(http.MethodPut), h.requireDB)
		r.Put("/", h.renameCategory)
	})

	root := chi.NewRouter()
	root.Use(middleware.Recoverer, requestLogger)
	root.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		root.Mount("/", fn)
	} else {
		root.Mount(prefix, fn)
	}

	h.router = root
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// cors sets the per-function CORS headers and answers preflight requests.
func cors(methods ...string) func(http.Handler) http.Handler {
	allow := strings.Join(append(methods, http.MethodOptions), ",")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", allow)
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) requireDB(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.db == nil {
			writeError(w, http.StatusInternalServerError, "Database not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		debuglog.WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Debugf("request served")
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debuglog.Warnf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}

func internalError(w http.ResponseWriter, what string, err error) {
	debuglog.Errorf("%s: %v", what, err)
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

// readBody decodes the JSON body into into. It writes the 400 itself when the
// body is missing or is not JSON.
func readBody(w http.ResponseWriter, r *http.Request, into any) bool {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(data))) == 0 {
		writeError(w, http.StatusBadRequest, "Missing request body")
		return false
	}
	if err := json.Unmarshal(data, into); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) getArticles(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("id"); id != "" {
		article, err := h.db.Article(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		if err != nil {
			internalError(w, "loading article", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"article": article})
		return
	}

	articles, err := h.db.Articles(r.Context())
	if err != nil {
		internalError(w, "loading articles", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": articles})
}

// articlePayload keeps readTime optional so an absent value defaults to 5.
type articlePayload struct {
	storage.Article
	ReadTime *int `json:"readTime"`
}

func (h *Handler) saveArticle(w http.ResponseWriter, r *http.Request) {
	var p articlePayload
	if !readBody(w, r, &p) {
		return
	}
	a := p.Article
	if a.ID == "" || a.Title == "" || a.Excerpt == "" || a.Content == "" {
		writeError(w, http.StatusBadRequest, "Missing required article fields")
		return
	}
	a.ReadTime = 5
	if p.ReadTime != nil {
		a.ReadTime = *p.ReadTime
	}

	saved, err := h.db.UpsertArticle(r.Context(), &a)
	if err != nil {
		internalError(w, "saving article", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": saved})
}

func (h *Handler) deleteArticle(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing article id")
		return
	}
	if err := h.db.DeleteArticle(r.Context(), id); err != nil {
		internalError(w, "deleting article", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordView(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing article id")
		return
	}
	article, err := h.db.IncrementViews(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Article not found")
		return
	}
	if err != nil {
		internalError(w, "incrementing article view", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"article": article})
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.db.Settings(r.Context())
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Settings not found")
		return
	}
	if err != nil {
		internalError(w, "loading settings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// settingsPayload tolerates non-array lists, which are stored as empty.
type settingsPayload struct {
	SiteName          string          `json:"siteName"`
	NavCategories     json.RawMessage `json:"navCategories"`
	ContactEmail      string          `json:"contactEmail"`
	FooterDescription string          `json:"footerDescription"`
	FooterLinks       json.RawMessage `json:"footerLinks"`
	LogoURL           string          `json:"logoUrl"`
	HomeLayout        string          `json:"homeLayout"`
}

func (p settingsPayload) settings() storage.Settings {
	s := storage.Settings{
		SiteName:          p.SiteName,
		ContactEmail:      p.ContactEmail,
		FooterDescription: p.FooterDescription,
		LogoURL:           p.LogoURL,
		HomeLayout:        storage.NormalizeLayout(p.HomeLayout),
	}
	if err := json.Unmarshal(p.NavCategories, &s.NavCategories); err != nil || s.NavCategories == nil {
		s.NavCategories = []string{}
	}
	if err := json.Unmarshal(p.FooterLinks, &s.FooterLinks); err != nil || s.FooterLinks == nil {
		s.FooterLinks = []storage.FooterLink{}
	}
	return s
}

func (h *Handler) saveSettings(w http.ResponseWriter, r *http.Request) {
	var p settingsPayload
	if !readBody(w, r, &p) {
		return
	}
	saved, err := h.db.SaveSettings(r.Context(), p.settings())
	if err != nil {
		internalError(w, "saving settings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": saved})
}

type renamePayload struct {
	OldName any `json:"oldName"`
	NewName any `json:"newName"`
}

func (h *Handler) renameCategory(w http.ResponseWriter, r *http.Request) {
	var p renamePayload
	if !readBody(w, r, &p) {
		return
	}
	oldName, _ := p.OldName.(string)
	newName, _ := p.NewName.(string)

	oldName, newName, err := storage.ValidateRename(oldName, newName)
	switch {
	case errors.Is(err, storage.ErrRenameUnchanged):
		writeError(w, http.StatusBadRequest, "New name must be different from old name")
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "Both oldName and newName are required")
		return
	}

	settings, err := h.db.RenameCategory(r.Context(), oldName, newName)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "Settings not found")
		return
	}
	if err != nil {
		internalError(w, "renaming category", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// ListenAndServe serves handler on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
