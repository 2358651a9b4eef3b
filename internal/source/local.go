package source

import (
	"context"

	"github.com/pders01/gazette/internal/storage"
)

// Local serves everything from the bolt cache. Views are counted locally.
type Local struct {
	store *storage.Store
}

func NewLocal(store *storage.Store) *Local {
	return &Local{store: store}
}

func (l *Local) Name() string {
	return "offline cache"
}

func (l *Local) Articles(ctx context.Context) ([]*storage.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.store.GetArticles()
}

func (l *Local) Settings(ctx context.Context) (storage.Settings, error) {
	if err := ctx.Err(); err != nil {
		return storage.Settings{}, err
	}
	return l.store.GetSettings()
}

func (l *Local) RecordView(ctx context.Context, id string) (*storage.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.store.IncrementViews(id)
}

func (l *Local) SaveArticle(ctx context.Context, article *storage.Article) (*storage.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := storage.Normalize(*article)
	return l.store.SaveArticle(&n)
}

func (l *Local) DeleteArticle(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.store.DeleteArticle(id)
}

func (l *Local) RenameCategory(ctx context.Context, oldName, newName string) (storage.Settings, error) {
	if err := ctx.Err(); err != nil {
		return storage.Settings{}, err
	}
	return l.store.RenameCategory(oldName, newName)
}
