// Package api talks to the blog functions: the small JSON endpoints that sit
// in front of the article table.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pders01/gazette/internal/config"
	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/storage"
)

// ErrNotFound is matched by a StatusError carrying a 404.
var ErrNotFound = errors.New("not found")

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 4 << 10

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

type articleEnvelope struct {
	Article *storage.Article `json:"article"`
}

type articlesEnvelope struct {
	Articles []*storage.Article `json:"articles"`
}

type settingsEnvelope struct {
	Settings *storage.Settings `json:"settings"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// RenameRequest is the body of PUT /categories.
type RenameRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient builds a client from the [api] config section. A rate limit of
// zero or less disables limiting.
func NewClient(cfg *config.Config) *Client {
	limit := rate.Inf
	if cfg.API.RateLimit > 0 {
		limit = rate.Limit(cfg.API.RateLimit)
	}
	burst := cfg.API.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.API.BaseURL, "/"),
		userAgent:  cfg.API.UserAgent,
		httpClient: &http.Client{Timeout: cfg.API.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Articles lists every article, newest first.
func (c *Client) Articles(ctx context.Context) ([]*storage.Article, error) {
	var out articlesEnvelope
	if err := c.do(ctx, http.MethodGet, "/articles", nil, nil, &out); err != nil {
		return nil, err
	}
	articles := make([]*storage.Article, 0, len(out.Articles))
	for _, a := range out.Articles {
		if a == nil {
			continue
		}
		n := storage.Normalize(*a)
		articles = append(articles, &n)
	}
	return articles, nil
}

func (c *Client) Article(ctx context.Context, id string) (*storage.Article, error) {
	var out articleEnvelope
	if err := c.do(ctx, http.MethodGet, "/articles", idQuery(id), nil, &out); err != nil {
		return nil, err
	}
	return normalized(out.Article)
}

// SaveArticle upserts article and returns the stored version.
func (c *Client) SaveArticle(ctx context.Context, article *storage.Article) (*storage.Article, error) {
	var out articleEnvelope
	if err := c.do(ctx, http.MethodPost, "/articles", nil, article, &out); err != nil {
		return nil, err
	}
	return normalized(out.Article)
}

func (c *Client) DeleteArticle(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/articles-delete", idQuery(id), nil, nil)
}

// RecordView increments the view counter of id and returns the article.
func (c *Client) RecordView(ctx context.Context, id string) (*storage.Article, error) {
	var out articleEnvelope
	if err := c.do(ctx, http.MethodPost, "/article-view", idQuery(id), nil, &out); err != nil {
		return nil, err
	}
	return normalized(out.Article)
}

func (c *Client) Settings(ctx context.Context) (storage.Settings, error) {
	var out settingsEnvelope
	if err := c.do(ctx, http.MethodGet, "/settings", nil, nil, &out); err != nil {
		return storage.Settings{}, err
	}
	return settingsOrDefault(out.Settings), nil
}

func (c *Client) SaveSettings(ctx context.Context, settings storage.Settings) (storage.Settings, error) {
	var out settingsEnvelope
	if err := c.do(ctx, http.MethodPut, "/settings", nil, settings, &out); err != nil {
		return storage.Settings{}, err
	}
	return settingsOrDefault(out.Settings), nil
}

// RenameCategory moves every article in oldName to newName and updates the
// navigation categories to match.
func (c *Client) RenameCategory(ctx context.Context, oldName, newName string) (storage.Settings, error) {
	var out settingsEnvelope
	body := RenameRequest{OldName: oldName, NewName: newName}
	if err := c.do(ctx, http.MethodPut, "/categories", nil, body, &out); err != nil {
		return storage.Settings{}, err
	}
	return settingsOrDefault(out.Settings), nil
}

func idQuery(id string) url.Values {
	return url.Values{"id": []string{id}}
}

func normalized(a *storage.Article) (*storage.Article, error) {
	if a == nil {
		return nil, errors.New("response has no article")
	}
	n := storage.Normalize(*a)
	return &n, nil
}

func settingsOrDefault(s *storage.Settings) storage.Settings {
	if s == nil {
		return storage.DefaultSettings()
	}
	return storage.NormalizeSettings(*s)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	debuglog.WithFields(map[string]any{"method": method, "path": path, "status": resp.StatusCode}).
		Debugf("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func statusError(method, path string, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(data))

	var env errorEnvelope
	if json.Unmarshal(data, &env) == nil && env.Error != "" {
		msg = env.Error
	}
	return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: msg}
}
