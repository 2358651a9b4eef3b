package search

import "github.com/pders01/gazette/internal/storage"

// Searcher is the search API used by the CLI and the admin console.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
	SearchInArticle(article *storage.Article, query string) ([]*Result, error)
}

// ArticleLister supplies the articles to index. *storage.Store satisfies it.
type ArticleLister interface {
	GetArticles() ([]*storage.Article, error)
}

// UpdateListener can be implemented by engines that keep an external index
// and want to hear about saved or deleted articles.
type UpdateListener interface {
	OnArticlesUpdated(articles []*storage.Article)
	OnArticleDeleted(id string)
}

// DebugStatser reports index size for the status line.
type DebugStatser interface {
	DocCount() (int, error)
}

// Result is one matching article.
type Result struct {
	Article *storage.Article
	Score   float64
	Matches []Match
}

// Match records where a query hit.
type Match struct {
	Field  string // "title", "excerpt", "content", "category", "author"
	Text   string
	Weight float64
}
