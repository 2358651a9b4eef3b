package search

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pders01/gazette/internal/storage"
)

const minQueryLength = 2

// Engine scores articles in memory without an index. It backs searches when
// the bleve index cannot be opened, and in-article search.
type Engine struct {
	lister ArticleLister
}

func NewEngine(lister ArticleLister) *Engine {
	return &Engine{lister: lister}
}

// Search ranks every article against query and returns the best limit hits.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	terms := tokenize(query)
	if len(strings.TrimSpace(query)) < minQueryLength || len(terms) == 0 {
		return []*Result{}, nil
	}

	articles, err := e.lister.GetArticles()
	if err != nil {
		return nil, err
	}

	results := []*Result{}
	for _, article := range articles {
		if r := scoreArticle(article, terms); r != nil {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchInArticle reports whether and where query hits a single article.
func (e *Engine) SearchInArticle(article *storage.Article, query string) ([]*Result, error) {
	return searchInArticle(article, query), nil
}

func searchInArticle(article *storage.Article, query string) []*Result {
	terms := tokenize(query)
	if article == nil || len(strings.TrimSpace(query)) < minQueryLength || len(terms) == 0 {
		return []*Result{}
	}
	if r := scoreArticle(article, terms); r != nil {
		return []*Result{r}
	}
	return []*Result{}
}

func scoreArticle(article *storage.Article, terms []string) *Result {
	var matches []Match
	var total float64

	add := func(field, text, snippet string, weight float64) {
		if score := scoreField(text, terms, weight); score > 0 {
			matches = append(matches, Match{Field: field, Text: snippet, Weight: score})
			total += score
		}
	}

	add("title", article.Title, article.Title, 4.0)
	add("excerpt", article.Excerpt, truncate(article.Excerpt, 150), 2.0)
	add("category", article.Category, article.Category, 1.5)
	add("content", article.Content, findBestSnippet(article.Content, terms, 200), 1.0)
	add("author", article.Author, article.Author, 0.5)

	if total == 0 {
		return nil
	}
	if article.Featured {
		total *= 1.05
	}
	return &Result{Article: article, Score: total, Matches: matches}
}

// scoreField rewards substring, whole-word and prefix hits and normalises by
// field length.
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matched++
			case strings.Contains(word, term):
				score += 0.5
				matched++
			}
		}
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}
	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet returns the window of text holding the most terms.
func findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	window := maxLength / 8
	if window >= len(words) {
		return truncate(text, maxLength)
	}

	bestScore, bestStart := 0, 0
	for i := 0; i+window <= len(words); i++ {
		chunk := strings.ToLower(strings.Join(words[i:i+window], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(chunk, term) {
				score++
			}
		}
		if score > bestScore {
			bestScore, bestStart = score, i
		}
	}
	return truncate(strings.Join(words[bestStart:bestStart+window], " "), maxLength)
}

// tokenize lowercases text and splits it on anything that is not a letter or
// digit. Single-character tokens are dropped.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			if term := current.String(); len([]rune(term)) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return terms
}

func truncate(text string, maxLen int) string {
	r := []rune(text)
	if maxLen <= 0 || len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-1]) + "…"
}
