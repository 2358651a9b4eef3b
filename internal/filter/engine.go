// Package filter derives what the reader should see from the article list and
// the current filter state. Every function here is pure: the same inputs give
// the same outputs and nothing is mutated.
package filter

import (
	"slices"
	"strings"
	"time"

	"github.com/pders01/gazette/internal/storage"
)

// PageSize is the number of archive entries per page.
const PageSize = 9

const (
	window30  = 30 * 24 * time.Hour
	window365 = 365 * 24 * time.Hour
)

// Page is one archive page plus the numbers needed to render a pager.
type Page struct {
	Items      []*storage.Article
	Number     int
	Requested  int
	TotalPages int
	TotalCount int
}

func (p Page) HasPrev() bool { return p.Number > 1 }
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Result is the full derivation for one set of inputs.
type Result struct {
	Filtered      []*storage.Article
	Display       []*storage.Article
	ArchiveByDate []*storage.Article
	ArchiveSorted []*storage.Article
	Archive       Page
}

// Derive runs the whole pipeline. featuredID may be empty when there is no
// featured article.
func Derive(articles []*storage.Article, st State, featuredID string, now time.Time) Result {
	filtered := Filter(articles, st.SearchQuery(), st.ActiveCategory())
	byDate := ByDate(filtered, st.DateFilter(), now)
	sorted := SortByDate(byDate)

	return Result{
		Filtered:      filtered,
		Display:       Display(filtered, st, featuredID),
		ArchiveByDate: byDate,
		ArchiveSorted: sorted,
		Archive:       Paginate(sorted, st.Page()),
	}
}

// Filter keeps articles matching both the search query and the category.
func Filter(articles []*storage.Article, query, category string) []*storage.Article {
	q := strings.ToLower(query)
	out := make([]*storage.Article, 0, len(articles))
	for _, a := range articles {
		if matchesSearch(a, q) && matchesCategory(a, category) {
			out = append(out, a)
		}
	}
	return out
}

// matchesSearch expects an already lowercased query.
func matchesSearch(a *storage.Article, q string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(a.Title), q) ||
		strings.Contains(strings.ToLower(a.Excerpt), q) ||
		strings.Contains(strings.ToLower(a.Author), q)
}

func matchesCategory(a *storage.Article, category string) bool {
	return category == "" || category == AllCategories || a.Category == category
}

// Display is the home feed list. In the default view the featured article is
// shown as the hero, so it is left out of the list.
func Display(filtered []*storage.Article, st State, featuredID string) []*storage.Article {
	if !st.IsDefault() || featuredID == "" {
		return filtered
	}
	out := make([]*storage.Article, 0, len(filtered))
	for _, a := range filtered {
		if a.ID != featuredID {
			out = append(out, a)
		}
	}
	return out
}

// ByDate applies the archive date bucket. Articles whose date does not parse
// are always kept.
func ByDate(articles []*storage.Article, f DateFilter, now time.Time) []*storage.Article {
	if f == DateAll {
		return articles
	}
	window := window30
	if f == DateLast365 {
		window = window365
	}

	out := make([]*storage.Article, 0, len(articles))
	for _, a := range articles {
		t, ok := ParseDate(a.Date)
		if !ok || now.Sub(t) <= window {
			out = append(out, a)
		}
	}
	return out
}

// SortByDate returns a newest-first copy. Unparseable dates count as the Unix
// epoch. The sort is stable so equal dates keep their input order.
func SortByDate(articles []*storage.Article) []*storage.Article {
	out := slices.Clone(articles)
	slices.SortStableFunc(out, func(a, b *storage.Article) int {
		ta, tb := timestamp(a.Date), timestamp(b.Date)
		switch {
		case ta > tb:
			return -1
		case ta < tb:
			return 1
		default:
			return 0
		}
	})
	return out
}

func timestamp(date string) int64 {
	t, ok := ParseDate(date)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// Paginate clamps requested into [1, TotalPages] and slices out that page.
func Paginate(sorted []*storage.Article, requested int) Page {
	count := len(sorted)
	total := (count + PageSize - 1) / PageSize
	if total < 1 {
		total = 1
	}

	page := requested
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > count {
		start = count
	}
	if end > count {
		end = count
	}

	return Page{
		Items:      sorted[start:end],
		Number:     page,
		Requested:  requested,
		TotalPages: total,
		TotalCount: count,
	}
}
