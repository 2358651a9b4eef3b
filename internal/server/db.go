package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pders01/gazette/internal/storage"
)

// ErrNotFound is returned when a row the caller asked for does not exist.
var ErrNotFound = errors.New("not found")

const settingsID = "default"

const articleColumns = `id, title, excerpt, content, media, audio_url, category, date, author, featured, read_time, sources, views`

// DB is the relational store behind the functions. Slices are kept as JSON
// text columns.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (or creates) the sqlite database at path and ensures the schema.
func Open(path string) (*DB, error) {
	connStr := path
	if path == ":memory:" {
		connStr = "file::memory:?cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	d := &DB{db: db}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return d, nil
}

func (d *DB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		excerpt TEXT NOT NULL,
		content TEXT NOT NULL,
		media TEXT,
		audio_url TEXT,
		category TEXT,
		date TEXT,
		author TEXT,
		featured INTEGER DEFAULT 0,
		read_time INTEGER,
		sources TEXT,
		views INTEGER DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_articles_created ON articles(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

	CREATE TABLE IF NOT EXISTS app_settings (
		id TEXT PRIMARY KEY,
		site_name TEXT,
		nav_categories TEXT,
		contact_email TEXT,
		footer_description TEXT,
		footer_links TEXT,
		logo_url TEXT,
		home_layout TEXT DEFAULT 'hero_masonry',
		updated_at TEXT NOT NULL
	);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.db.Close()
}

// timestampLayout has a fixed width so created_at sorts as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func now() string {
	return time.Now().UTC().Format(timestampLayout)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*storage.Article, error) {
	var (
		a        storage.Article
		media    sql.NullString
		audioURL sql.NullString
		category sql.NullString
		date     sql.NullString
		author   sql.NullString
		featured sql.NullBool
		readTime sql.NullInt64
		sources  sql.NullString
		views    sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.Title, &a.Excerpt, &a.Content, &media, &audioURL,
		&category, &date, &author, &featured, &readTime, &sources, &views)
	if err != nil {
		return nil, err
	}

	a.Media = []storage.Media{}
	if media.Valid && media.String != "" {
		if err := json.Unmarshal([]byte(media.String), &a.Media); err != nil {
			return nil, fmt.Errorf("decoding media of %s: %w", a.ID, err)
		}
	}
	a.Sources = []string{}
	if sources.Valid && sources.String != "" {
		if err := json.Unmarshal([]byte(sources.String), &a.Sources); err != nil {
			return nil, fmt.Errorf("decoding sources of %s: %w", a.ID, err)
		}
	}
	a.AudioURL = audioURL.String
	a.Category = category.String
	a.Date = date.String
	a.Author = author.String
	a.Featured = featured.Bool
	a.ReadTime = 5
	if readTime.Valid {
		a.ReadTime = int(readTime.Int64)
	}
	a.Views = int(views.Int64)
	return &a, nil
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Articles returns every article, newest created first.
func (d *DB) Articles(ctx context.Context) ([]*storage.Article, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.db.QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	articles := []*storage.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (d *DB) Article(ctx context.Context, id string) (*storage.Article, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	row := d.db.QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ? LIMIT 1`, id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query article: %w", err)
	}
	return a, nil
}

// UpsertArticle inserts a or overwrites every field of the existing row,
// views included. created_at is kept on update.
func (d *DB) UpsertArticle(ctx context.Context, a *storage.Article) (*storage.Article, error) {
	media := a.Media
	if media == nil {
		media = []storage.Media{}
	}
	sources := a.Sources
	if sources == nil {
		sources = []string{}
	}
	mediaJSON, err := encodeJSON(media)
	if err != nil {
		return nil, fmt.Errorf("encoding media: %w", err)
	}
	sourcesJSON, err := encodeJSON(sources)
	if err != nil {
		return nil, fmt.Errorf("encoding sources: %w", err)
	}
	var audio any
	if a.AudioURL != "" {
		audio = a.AudioURL
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	stamp := now()
	row := d.db.QueryRowContext(ctx, `
		INSERT INTO articles (`+articleColumns+`, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			excerpt = excluded.excerpt,
			content = excluded.content,
			media = excluded.media,
			audio_url = excluded.audio_url,
			category = excluded.category,
			date = excluded.date,
			author = excluded.author,
			featured = excluded.featured,
			read_time = excluded.read_time,
			sources = excluded.sources,
			views = excluded.views,
			updated_at = excluded.updated_at
		RETURNING `+articleColumns,
		a.ID, a.Title, a.Excerpt, a.Content, mediaJSON, audio, a.Category, a.Date,
		a.Author, a.Featured, a.ReadTime, sourcesJSON, a.Views, stamp, stamp)

	saved, err := scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("upsert article: %w", err)
	}
	return saved, nil
}

// DeleteArticle removes the article. Deleting an unknown id is not an error.
func (d *DB) DeleteArticle(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	return nil
}

// IncrementViews adds one view and returns the updated article.
func (d *DB) IncrementViews(ctx context.Context, id string) (*storage.Article, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	row := d.db.QueryRowContext(ctx, `
		UPDATE articles
		SET views = COALESCE(views, 0) + 1, updated_at = ?
		WHERE id = ?
		RETURNING `+articleColumns, now(), id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("increment views: %w", err)
	}
	return a, nil
}

const settingsColumns = `site_name, nav_categories, contact_email, footer_description, footer_links, logo_url, home_layout`

func scanSettings(row rowScanner) (storage.Settings, error) {
	var (
		s           storage.Settings
		siteName    sql.NullString
		navCats     sql.NullString
		email       sql.NullString
		description sql.NullString
		footerLinks sql.NullString
		logoURL     sql.NullString
		layout      sql.NullString
	)
	if err := row.Scan(&siteName, &navCats, &email, &description, &footerLinks, &logoURL, &layout); err != nil {
		return storage.Settings{}, err
	}

	s.SiteName = siteName.String
	s.ContactEmail = email.String
	s.FooterDescription = description.String
	s.LogoURL = logoURL.String
	s.HomeLayout = storage.NormalizeLayout(layout.String)

	s.NavCategories = []string{}
	if navCats.String != "" {
		if err := json.Unmarshal([]byte(navCats.String), &s.NavCategories); err != nil {
			s.NavCategories = []string{}
		}
	}
	s.FooterLinks = []storage.FooterLink{}
	if footerLinks.String != "" {
		if err := json.Unmarshal([]byte(footerLinks.String), &s.FooterLinks); err != nil {
			s.FooterLinks = []storage.FooterLink{}
		}
	}
	return s, nil
}

// Settings returns the site settings, ErrNotFound if none were ever saved.
func (d *DB) Settings(ctx context.Context) (storage.Settings, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	row := d.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM app_settings WHERE id = ? LIMIT 1`, settingsID)
	s, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Settings{}, fmt.Errorf("settings: %w", ErrNotFound)
	}
	if err != nil {
		return storage.Settings{}, fmt.Errorf("query settings: %w", err)
	}
	return s, nil
}

// SaveSettings upserts the single settings row. The layout is coerced to a
// known value.
func (d *DB) SaveSettings(ctx context.Context, s storage.Settings) (storage.Settings, error) {
	navCats := s.NavCategories
	if navCats == nil {
		navCats = []string{}
	}
	links := s.FooterLinks
	if links == nil {
		links = []storage.FooterLink{}
	}
	navJSON, err := encodeJSON(navCats)
	if err != nil {
		return storage.Settings{}, fmt.Errorf("encoding categories: %w", err)
	}
	linksJSON, err := encodeJSON(links)
	if err != nil {
		return storage.Settings{}, fmt.Errorf("encoding footer links: %w", err)
	}
	var logo any
	if s.LogoURL != "" {
		logo = s.LogoURL
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	row := d.db.QueryRowContext(ctx, `
		INSERT INTO app_settings (id, `+settingsColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			site_name = excluded.site_name,
			nav_categories = excluded.nav_categories,
			contact_email = excluded.contact_email,
			footer_description = excluded.footer_description,
			footer_links = excluded.footer_links,
			logo_url = excluded.logo_url,
			home_layout = excluded.home_layout,
			updated_at = excluded.updated_at
		RETURNING `+settingsColumns,
		settingsID, s.SiteName, navJSON, s.ContactEmail, s.FooterDescription,
		linksJSON, logo, storage.NormalizeLayout(s.HomeLayout), now())

	saved, err := scanSettings(row)
	if err != nil {
		return storage.Settings{}, fmt.Errorf("upsert settings: %w", err)
	}
	return saved, nil
}

// RenameCategory moves every article in oldName to newName and rewrites the
// navigation categories, in one transaction. Names must already be validated.
// Without a settings row the articles are still renamed and ErrNotFound is
// returned.
func (d *DB) RenameCategory(ctx context.Context, oldName, newName string) (storage.Settings, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Settings{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE articles SET category = ? WHERE category = ?`, newName, oldName); err != nil {
		return storage.Settings{}, fmt.Errorf("rename category on articles: %w", err)
	}

	settings, err := scanSettings(tx.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM app_settings WHERE id = ? LIMIT 1`, settingsID))
	if errors.Is(err, sql.ErrNoRows) {
		if err := tx.Commit(); err != nil {
			return storage.Settings{}, fmt.Errorf("commit rename: %w", err)
		}
		return storage.Settings{}, fmt.Errorf("settings: %w", ErrNotFound)
	}
	if err != nil {
		return storage.Settings{}, fmt.Errorf("query settings: %w", err)
	}

	settings.NavCategories = storage.ReplaceCategory(settings.NavCategories, oldName, newName)
	navJSON, err := encodeJSON(settings.NavCategories)
	if err != nil {
		return storage.Settings{}, fmt.Errorf("encoding categories: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE app_settings SET nav_categories = ?, updated_at = ? WHERE id = ?`,
		navJSON, now(), settingsID); err != nil {
		return storage.Settings{}, fmt.Errorf("rename category in settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.Settings{}, fmt.Errorf("commit rename: %w", err)
	}
	return settings, nil
}
