package filter

import "strings"

// AllCategories is the category sentinel meaning "no category filter". It is
// never stored as a real article category.
const AllCategories = "All"

// DateFilter is a relative-time bucket for the archive view.
type DateFilter int

const (
	DateAll DateFilter = iota
	DateLast30
	DateLast365
)

func (f DateFilter) String() string {
	switch f {
	case DateLast30:
		return "last30"
	case DateLast365:
		return "last365"
	default:
		return "all"
	}
}

// Label is the human readable form used by the archive header.
func (f DateFilter) Label() string {
	switch f {
	case DateLast30:
		return "Last 30 days"
	case DateLast365:
		return "Last year"
	default:
		return "All time"
	}
}

// Next cycles all → last30 → last365 → all.
func (f DateFilter) Next() DateFilter {
	switch f {
	case DateAll:
		return DateLast30
	case DateLast30:
		return DateLast365
	default:
		return DateAll
	}
}

func ParseDateFilter(s string) DateFilter {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "last30":
		return DateLast30
	case "last365":
		return DateLast365
	default:
		return DateAll
	}
}

// State holds the user's filter selections. Changing the search query, the
// category or the date bucket resets the archive page to 1.
type State struct {
	searchQuery    string
	activeCategory string
	dateFilter     DateFilter
	page           int
}

func NewState() State {
	return State{activeCategory: AllCategories, dateFilter: DateAll, page: 1}
}

func (s State) SearchQuery() string    { return s.searchQuery }
func (s State) ActiveCategory() string { return s.activeCategory }
func (s State) DateFilter() DateFilter { return s.dateFilter }
func (s State) Page() int              { return s.page }

// IsDefault reports whether the home feed is unfiltered.
func (s State) IsDefault() bool {
	return s.searchQuery == "" && s.activeCategory == AllCategories
}

func (s *State) SetSearchQuery(q string) {
	if q == s.searchQuery {
		return
	}
	s.searchQuery = q
	s.page = 1
}

// SetCategory selects a category; an empty name selects AllCategories.
func (s *State) SetCategory(category string) {
	if category == "" {
		category = AllCategories
	}
	if category == s.activeCategory {
		return
	}
	s.activeCategory = category
	s.page = 1
}

func (s *State) SetDateFilter(f DateFilter) {
	if f == s.dateFilter {
		return
	}
	s.dateFilter = f
	s.page = 1
}

// SetPage stores the requested archive page as is; clamping happens when the
// page is derived, because the valid range depends on the article list.
func (s *State) SetPage(page int) {
	s.page = page
}

// Reset clears search and category. The date bucket is left alone.
func (s *State) Reset() {
	s.SetSearchQuery("")
	s.SetCategory(AllCategories)
}
