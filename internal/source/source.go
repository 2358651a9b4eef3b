// Package source is where the reader gets its articles from: the blog
// functions when online, the local cache when not.
package source

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/storage"
)

// Source supplies the reader.
type Source interface {
	Articles(ctx context.Context) ([]*storage.Article, error)
	Settings(ctx context.Context) (storage.Settings, error)
	RecordView(ctx context.Context, id string) (*storage.Article, error)
}

// Publisher is the admin side of a Source.
type Publisher interface {
	SaveArticle(ctx context.Context, article *storage.Article) (*storage.Article, error)
	DeleteArticle(ctx context.Context, id string) error
	RenameCategory(ctx context.Context, oldName, newName string) (storage.Settings, error)
}

// Backend is a Source that can also publish.
type Backend interface {
	Source
	Publisher
	Name() string
}

// Snapshot is the result of a bootstrap. Articles is never nil.
type Snapshot struct {
	Articles []*storage.Article
	Settings storage.Settings
	// Err joins whatever went wrong; the snapshot is still usable.
	Err error
}

// Bootstrap fetches articles and settings in parallel. Failures are logged
// and replaced by an empty list or the default settings.
func Bootstrap(ctx context.Context, src Source) Snapshot {
	var (
		articles    []*storage.Article
		settings    storage.Settings
		articlesErr error
		settingsErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		articles, articlesErr = src.Articles(gctx)
		return nil
	})
	g.Go(func() error {
		settings, settingsErr = src.Settings(gctx)
		return nil
	})
	_ = g.Wait()

	snap := Snapshot{Articles: articles, Settings: settings}
	if articlesErr != nil {
		debuglog.Errorf("loading articles: %v", articlesErr)
		snap.Articles = nil
		articlesErr = fmt.Errorf("loading articles: %w", articlesErr)
	}
	if settingsErr != nil {
		debuglog.Errorf("loading settings: %v", settingsErr)
		snap.Settings = storage.DefaultSettings()
		settingsErr = fmt.Errorf("loading settings: %w", settingsErr)
	}
	if snap.Articles == nil {
		snap.Articles = []*storage.Article{}
	}
	snap.Err = errors.Join(articlesErr, settingsErr)
	return snap
}
