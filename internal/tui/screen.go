package tui

import (
	"time"

	"github.com/pders01/gazette/internal/filter"
	"github.com/pders01/gazette/internal/navigation"
	"github.com/pders01/gazette/internal/storage"
)

type ScreenKind int

const (
	ScreenGridSkeleton ScreenKind = iota
	ScreenArticleSkeleton
	ScreenHome
	ScreenArchive
	ScreenArticle
	ScreenAdmin
)

func (k ScreenKind) String() string {
	switch k {
	case ScreenGridSkeleton:
		return "grid-skeleton"
	case ScreenArticleSkeleton:
		return "article-skeleton"
	case ScreenHome:
		return "home"
	case ScreenArchive:
		return "archive"
	case ScreenArticle:
		return "article"
	case ScreenAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// relatedLimit is how many same-category articles an article page lists.
const relatedLimit = 3

// Screen is the read-only snapshot the renderer draws.
type Screen struct {
	Kind       ScreenKind
	View       navigation.View
	SelectedID string

	// Home
	Featured *storage.Article
	Display  []*storage.Article
	Default  bool

	// Archive
	Archive    filter.Page
	DateFilter filter.DateFilter

	// Article
	Article *storage.Article
	Related []*storage.Article
}

// navState is the part of the navigation controller a screen depends on.
type navState interface {
	View() navigation.View
	SelectedArticleID() string
	Loading() bool
}

// composeScreen decides what to show. Bootstrapping always shows the grid
// skeleton. While a transition is loading, home shows the article skeleton
// and every other view the grid skeleton.
func composeScreen(bootstrapping bool, nav navState, articles []*storage.Article, st filter.State, now time.Time) Screen {
	view := nav.View()
	s := Screen{View: view}

	switch {
	case bootstrapping:
		s.Kind = ScreenGridSkeleton
		return s
	case nav.Loading():
		if view == navigation.ViewHome {
			s.Kind = ScreenArticleSkeleton
		} else {
			s.Kind = ScreenGridSkeleton
		}
		return s
	}

	featured := storage.Featured(articles)
	featuredID := ""
	if featured != nil {
		featuredID = featured.ID
	}

	switch view {
	case navigation.ViewArticle:
		id := nav.SelectedArticleID()
		if current := storage.FindByID(articles, id); current != nil {
			s.Kind = ScreenArticle
			s.SelectedID = id
			s.Article = current
			s.Related = storage.Related(articles, current, relatedLimit)
			return s
		}
		// selection vanished (deleted or refreshed away); fall through to home
		fallthrough
	case navigation.ViewHome:
		derived := filter.Derive(articles, st, featuredID, now)
		s.Kind = ScreenHome
		s.Display = derived.Display
		s.Default = st.IsDefault()
		if s.Default {
			s.Featured = featured
		}
	case navigation.ViewArchive:
		derived := filter.Derive(articles, st, featuredID, now)
		s.Kind = ScreenArchive
		s.Archive = derived.Archive
		s.DateFilter = st.DateFilter()
	case navigation.ViewAdmin:
		s.Kind = ScreenAdmin
	}
	return s
}
