package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	articlesBucket = []byte("articles")
	settingsBucket = []byte("settings")
	metaBucket     = []byte("metadata")

	orderKey    = []byte("order")
	settingsKey = []byte("default")
	syncedKey   = []byte("last_synced")
)

var ErrNotFound = errors.New("not found")

// Store is the local article cache. Article order is kept separately from the
// article bucket so the backend's ordering (newest first) survives a restart.
type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{articlesBucket, settingsBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func readOrder(tx *bolt.Tx) ([]string, error) {
	data := tx.Bucket(metaBucket).Get(orderKey)
	if data == nil {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decoding article order: %w", err)
	}
	return ids, nil
}

func writeOrder(tx *bolt.Tx, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return tx.Bucket(metaBucket).Put(orderKey, data)
}

func putArticle(b *bolt.Bucket, article *Article) error {
	data, err := json.Marshal(article)
	if err != nil {
		return err
	}
	return b.Put([]byte(article.ID), data)
}

// ReplaceArticles overwrites the cache with articles, in the given order.
func (s *Store) ReplaceArticles(articles []*Article) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(articlesBucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(articlesBucket)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(articles))
		for _, article := range articles {
			if err := putArticle(b, article); err != nil {
				return err
			}
			ids = append(ids, article.ID)
		}
		if err := writeOrder(tx, ids); err != nil {
			return err
		}

		stamp, err := time.Now().UTC().MarshalText()
		if err != nil {
			return err
		}
		return tx.Bucket(metaBucket).Put(syncedKey, stamp)
	})
}

// SaveArticle upserts article. A new article goes to the front of the list;
// an existing one keeps its position and its view count.
func (s *Store) SaveArticle(article *Article) (*Article, error) {
	saved := *article
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		if existing := b.Get([]byte(article.ID)); existing != nil {
			var prev Article
			if err := json.Unmarshal(existing, &prev); err == nil {
				saved.Views = prev.Views
			}
			return putArticle(b, &saved)
		}

		if err := putArticle(b, &saved); err != nil {
			return err
		}
		ids, err := readOrder(tx)
		if err != nil {
			return err
		}
		return writeOrder(tx, append([]string{saved.ID}, ids...))
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *Store) GetArticle(id string) (*Article, error) {
	var article Article
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(articlesBucket).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("article %q: %w", id, ErrNotFound)
		}
		return json.Unmarshal(data, &article)
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// GetArticles returns cached articles in stored order. Articles missing from
// the order index (written by an older version) are appended at the end.
func (s *Store) GetArticles() ([]*Article, error) {
	var articles []*Article
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		ids, err := readOrder(tx)
		if err != nil {
			return err
		}

		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			data := b.Get([]byte(id))
			if data == nil {
				continue
			}
			var article Article
			if err := json.Unmarshal(data, &article); err != nil {
				continue
			}
			seen[id] = true
			articles = append(articles, &article)
		}

		return b.ForEach(func(k, v []byte) error {
			if seen[string(k)] {
				return nil
			}
			var article Article
			if err := json.Unmarshal(v, &article); err != nil {
				return nil
			}
			articles = append(articles, &article)
			return nil
		})
	})
	return articles, err
}

// IncrementViews bumps the view counter and returns the updated article.
func (s *Store) IncrementViews(id string) (*Article, error) {
	var article Article
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("article %q: %w", id, ErrNotFound)
		}
		if err := json.Unmarshal(data, &article); err != nil {
			return err
		}
		article.Views++
		return putArticle(b, &article)
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// MergeArticle replaces a cached article in place. Unknown ids are ignored.
func (s *Store) MergeArticle(article *Article) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		if b.Get([]byte(article.ID)) == nil {
			return nil
		}
		return putArticle(b, article)
	})
}

func (s *Store) DeleteArticle(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(articlesBucket).Delete([]byte(id)); err != nil {
			return err
		}
		ids, err := readOrder(tx)
		if err != nil {
			return err
		}
		kept := ids[:0]
		for _, existing := range ids {
			if existing != id {
				kept = append(kept, existing)
			}
		}
		return writeOrder(tx, kept)
	})
}

// GetSettings returns stored settings merged over the defaults.
func (s *Store) GetSettings() (Settings, error) {
	settings := DefaultSettings()
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(settingsBucket).Get(settingsKey)
		if data == nil {
			return nil
		}
		var stored Settings
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("decoding settings: %w", err)
		}
		settings = NormalizeSettings(stored)
		return nil
	})
	return settings, err
}

func (s *Store) SaveSettings(settings Settings) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(settings)
		if err != nil {
			return err
		}
		return tx.Bucket(settingsBucket).Put(settingsKey, data)
	})
}

// LastSynced reports when ReplaceArticles last ran. Zero if never.
func (s *Store) LastSynced() (time.Time, error) {
	var t time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get(syncedKey)
		if data == nil {
			return nil
		}
		return t.UnmarshalText(data)
	})
	return t, err
}

// RenameCategory moves every cached article from oldName to newName and
// rewrites the navigation categories in the same transaction.
func (s *Store) RenameCategory(oldName, newName string) (Settings, error) {
	oldName, newName, err := ValidateRename(oldName, newName)
	if err != nil {
		return Settings{}, err
	}

	settings := DefaultSettings()
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		var changed []*Article
		err := b.ForEach(func(_, v []byte) error {
			var a Article
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			if a.Category == oldName {
				a.Category = newName
				changed = append(changed, &a)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, a := range changed {
			if err := putArticle(b, a); err != nil {
				return err
			}
		}

		sb := tx.Bucket(settingsBucket)
		if data := sb.Get(settingsKey); data != nil {
			var stored Settings
			if err := json.Unmarshal(data, &stored); err != nil {
				return fmt.Errorf("decoding settings: %w", err)
			}
			settings = NormalizeSettings(stored)
		}
		settings.NavCategories = ReplaceCategory(settings.NavCategories, oldName, newName)
		data, err := json.Marshal(settings)
		if err != nil {
			return err
		}
		return sb.Put(settingsKey, data)
	})
	if err != nil {
		return Settings{}, err
	}
	return settings, nil
}
