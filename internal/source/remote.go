package source

import (
	"context"

	"github.com/pders01/gazette/internal/api"
	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/storage"
)

// Remote reads from the blog functions and keeps the local cache current.
// cache may be nil.
type Remote struct {
	client *api.Client
	cache  *storage.Store
}

func NewRemote(client *api.Client, cache *storage.Store) *Remote {
	return &Remote{client: client, cache: cache}
}

func (r *Remote) Name() string {
	return r.client.BaseURL()
}

func (r *Remote) Articles(ctx context.Context) ([]*storage.Article, error) {
	articles, err := r.client.Articles(ctx)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if err := r.cache.ReplaceArticles(articles); err != nil {
			debuglog.Warnf("refreshing article cache: %v", err)
		}
	}
	return articles, nil
}

func (r *Remote) Settings(ctx context.Context) (storage.Settings, error) {
	settings, err := r.client.Settings(ctx)
	if err != nil {
		return storage.Settings{}, err
	}
	r.cacheSettings(settings)
	return settings, nil
}

func (r *Remote) RecordView(ctx context.Context, id string) (*storage.Article, error) {
	article, err := r.client.RecordView(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cacheArticle(article)
	return article, nil
}

func (r *Remote) SaveArticle(ctx context.Context, article *storage.Article) (*storage.Article, error) {
	saved, err := r.client.SaveArticle(ctx, article)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		if _, err := r.cache.SaveArticle(saved); err != nil {
			debuglog.Warnf("caching saved article %s: %v", saved.ID, err)
		}
	}
	return saved, nil
}

func (r *Remote) DeleteArticle(ctx context.Context, id string) error {
	if err := r.client.DeleteArticle(ctx, id); err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.DeleteArticle(id); err != nil {
			debuglog.Warnf("removing %s from cache: %v", id, err)
		}
	}
	return nil
}

func (r *Remote) RenameCategory(ctx context.Context, oldName, newName string) (storage.Settings, error) {
	if _, _, err := storage.ValidateRename(oldName, newName); err != nil {
		return storage.Settings{}, err
	}
	settings, err := r.client.RenameCategory(ctx, oldName, newName)
	if err != nil {
		return storage.Settings{}, err
	}
	if r.cache != nil {
		if _, err := r.cache.RenameCategory(oldName, newName); err != nil {
			debuglog.Warnf("renaming category in cache: %v", err)
		}
	}
	r.cacheSettings(settings)
	return settings, nil
}

func (r *Remote) cacheArticle(article *storage.Article) {
	if r.cache == nil || article == nil {
		return
	}
	if err := r.cache.MergeArticle(article); err != nil {
		debuglog.Warnf("caching article %s: %v", article.ID, err)
	}
}

func (r *Remote) cacheSettings(settings storage.Settings) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SaveSettings(settings); err != nil {
		debuglog.Warnf("caching settings: %v", err)
	}
}
