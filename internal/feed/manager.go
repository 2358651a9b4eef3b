// Package feed imports RSS, Atom and JSON feeds as blog articles.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/gazette/internal/config"
	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/storage"
	"github.com/pders01/gazette/internal/validation"
)

const maxConcurrentSaves = 4

// Publisher receives imported articles. source.Backend satisfies it.
type Publisher interface {
	SaveArticle(ctx context.Context, article *storage.Article) (*storage.Article, error)
}

// Result summarises one feed import.
type Result struct {
	URL      string
	Title    string
	Imported []*storage.Article
	// Failed holds per-article save errors; the import itself succeeded
	Failed []error
}

type Manager struct {
	publisher    Publisher
	fetcher      *Fetcher
	parser       *Parser
	config       *config.Config
	urlValidator *validation.URLValidator
	mu           sync.RWMutex
}

func NewManager(publisher Publisher, cfg *config.Config) *Manager {
	return &Manager{
		publisher:    publisher,
		fetcher:      NewFetcher(cfg),
		parser:       NewParser(),
		config:       cfg,
		urlValidator: validation.NewFeedURLValidator(),
	}
}

// SetPermissiveValidation allows local feed hosts, for development and tests.
func (m *Manager) SetPermissiveValidation(permissive bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if permissive {
		m.urlValidator = validation.NewPermissiveFeedURLValidator()
	} else {
		m.urlValidator = validation.NewFeedURLValidator()
	}
}

func (m *Manager) validator() *validation.URLValidator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.urlValidator
}

// Import fetches url, maps its items to articles and publishes them. category
// overrides the configured default for items without one.
func (m *Manager) Import(ctx context.Context, url, category string) (*Result, error) {
	normalized, err := m.validator().ValidateAndNormalize(url)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	body, err := m.fetcher.Fetch(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if category == "" {
		category = m.config.Feed.DefaultCategory
	}
	parsed, err := m.parser.Parse(bytes.NewReader(body), ParseOptions{
		Category:      category,
		MaxItems:      m.config.Feed.MaxItems,
		ExcerptLength: m.config.UI.Article.MaxExcerptLength,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{URL: normalized, Title: parsed.Title}
	saved := make([]*storage.Article, len(parsed.Articles))
	failures := make([]error, len(parsed.Articles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSaves)
	for i, article := range parsed.Articles {
		g.Go(func() error {
			s, err := m.publisher.SaveArticle(gctx, article)
			if err != nil {
				failures[i] = fmt.Errorf("saving %q: %w", article.Title, err)
				return nil
			}
			saved[i] = s
			return nil
		})
	}
	_ = g.Wait()

	for i := range parsed.Articles {
		if saved[i] != nil {
			result.Imported = append(result.Imported, saved[i])
		}
		if failures[i] != nil {
			result.Failed = append(result.Failed, failures[i])
		}
	}

	debuglog.WithFields(map[string]any{
		"feed":     normalized,
		"imported": len(result.Imported),
		"failed":   len(result.Failed),
	}).Infof("feed imported")

	if len(result.Imported) == 0 && len(result.Failed) > 0 {
		return result, fmt.Errorf("importing %s: %w", normalized, errors.Join(result.Failed...))
	}
	return result, nil
}

// ImportAll imports several feeds concurrently. Results come back in input
// order; a feed that could not be fetched or parsed has a nil result.
func (m *Manager) ImportAll(ctx context.Context, urls []string, category string) ([]*Result, error) {
	const maxConcurrentFeeds = 5

	results := make([]*Result, len(urls))
	errs := make([]error, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFeeds)
	for i, url := range urls {
		g.Go(func() error {
			results[i], errs[i] = m.Import(gctx, url, category)
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}
