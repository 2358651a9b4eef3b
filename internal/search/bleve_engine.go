package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/storage"
	"github.com/pders01/gazette/internal/validation"
)

const reindexPageSize = 1000

type fieldBoost struct {
	name   string
	match  float64
	prefix float64
}

var searchFields = []fieldBoost{
	{"title", 4.0, 3.5},
	{"excerpt", 2.0, 1.8},
	{"category", 1.5, 1.2},
	{"content", 1.0, 0.8},
	{"author", 0.5, 0.3},
}

// BleveEngine keeps a full-text index of the article cache.
type BleveEngine struct {
	lister ArticleLister
	idx    bleve.Index
}

// NewBleveEngine opens or creates the index at indexPath and indexes the
// current articles. An empty path or ":memory:" keeps the index in memory.
func NewBleveEngine(lister ArticleLister, indexPath string) (*BleveEngine, error) {
	idx, err := openIndex(indexPath)
	if err != nil {
		return nil, err
	}

	be := &BleveEngine{lister: lister, idx: idx}
	if err := be.Reindex(); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return be, nil
}

func openIndex(indexPath string) (bleve.Index, error) {
	if indexPath == "" || indexPath == validation.MemoryPath {
		return bleve.NewMemOnly(buildIndexMapping())
	}

	clean, err := validation.NewPathValidator().PrepareDir(indexPath)
	if err != nil {
		return nil, err
	}
	if idx, err := bleve.Open(clean); err == nil {
		return idx, nil
	}
	idx, err := bleve.New(clean, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index at %s: %w", clean, err)
	}
	return idx, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	excerpt := bleve.NewTextFieldMapping()
	excerpt.Analyzer = standard.Name
	excerpt.Store = true

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false

	// category and author are short labels, stored for result display
	category := bleve.NewTextFieldMapping()
	category.Analyzer = standard.Name
	category.Store = true

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("excerpt", excerpt)
	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("category", category)
	dm.AddFieldMappingsAt("author", author)

	im.DefaultMapping = dm
	return im
}

func articleDoc(a *storage.Article) map[string]any {
	return map[string]any{
		"title":    a.Title,
		"excerpt":  a.Excerpt,
		"content":  a.Content,
		"category": a.Category,
		"author":   a.Author,
	}
}

// Reindex rebuilds the index from the lister, dropping documents for
// articles that no longer exist.
func (b *BleveEngine) Reindex() error {
	articles, err := b.lister.GetArticles()
	if err != nil {
		return err
	}

	live := make(map[string]struct{}, len(articles))
	batch := b.idx.NewBatch()
	for _, a := range articles {
		live[a.ID] = struct{}{}
		if err := batch.Index(a.ID, articleDoc(a)); err != nil {
			return err
		}
	}

	stale, err := b.indexedIDs()
	if err != nil {
		return err
	}
	for _, id := range stale {
		if _, ok := live[id]; !ok {
			batch.Delete(id)
		}
	}

	debuglog.Infof("search: indexing %d articles", len(articles))
	return b.idx.Batch(batch)
}

func (b *BleveEngine) indexedIDs() ([]string, error) {
	var ids []string
	for from := 0; ; from += reindexPageSize {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), reindexPageSize, from, false)
		res, err := b.idx.Search(req)
		if err != nil {
			return nil, err
		}
		for _, h := range res.Hits {
			ids = append(ids, h.ID)
		}
		if len(res.Hits) < reindexPageSize {
			return ids, nil
		}
	}
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < minQueryLength {
		return []*Result{}, nil
	}
	tokens := tokenize(query)
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		for _, f := range searchFields {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(f.name)
			mq.SetBoost(f.match)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(f.name)
			pq.SetBoost(f.prefix)
			qs = append(qs, pq)
		}
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title", "excerpt", "category", "author"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	byID := map[string]*storage.Article{}
	if articles, err := b.lister.GetArticles(); err == nil {
		for _, a := range articles {
			byID[a.ID] = a
		}
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		a, ok := byID[h.ID]
		if !ok {
			a = &storage.Article{ID: h.ID}
			a.Title, _ = h.Fields["title"].(string)
			a.Excerpt, _ = h.Fields["excerpt"].(string)
			a.Category, _ = h.Fields["category"].(string)
			a.Author, _ = h.Fields["author"].(string)
		}
		r := &Result{Article: a, Score: h.Score}
		if scored := scoreArticle(a, tokens); scored != nil {
			r.Matches = scored.Matches
		}
		out = append(out, r)
	}
	return out, nil
}

// SearchInArticle scores a single article without touching the index.
func (b *BleveEngine) SearchInArticle(article *storage.Article, query string) ([]*Result, error) {
	return searchInArticle(article, query), nil
}

// OnArticlesUpdated indexes the provided articles.
func (b *BleveEngine) OnArticlesUpdated(articles []*storage.Article) {
	batch := b.idx.NewBatch()
	for _, a := range articles {
		_ = batch.Index(a.ID, articleDoc(a))
	}
	if err := b.idx.Batch(batch); err != nil {
		debuglog.Warnf("search: indexing %d articles: %v", len(articles), err)
	}
}

func (b *BleveEngine) OnArticleDeleted(id string) {
	if err := b.idx.Delete(id); err != nil {
		debuglog.Warnf("search: removing %s: %v", id, err)
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}
