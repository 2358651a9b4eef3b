package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/search"
	"github.com/pders01/gazette/internal/source"
	"github.com/pders01/gazette/internal/storage"
)

const (
	adminSearchLimit = 50
	publishTimeout   = 15 * time.Second
)

// wrapErr formats an error with a contextual prefix.
func wrapErr(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

func (a *App) bootstrap() tea.Cmd {
	src := a.src
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
		defer cancel()
		return bootstrapMsg{snap: source.Bootstrap(ctx, src)}
	}
}

// refresh reloads articles and settings. The navigation state is kept; only
// the data version moves.
func (a *App) refresh() tea.Cmd {
	a.setStatus(MsgRefreshing, StatusInfo)
	return a.bootstrap()
}

// renderSelected renders the selected article's page with glamour.
func (a *App) renderSelected() tea.Cmd {
	scr := a.screen()
	if scr.Kind != ScreenArticle {
		return nil
	}
	article, related := scr.Article, scr.Related
	r, err := a.getRenderer()
	return func() tea.Msg {
		if err != nil {
			return articleRenderedMsg{id: article.ID, content: "Error initializing renderer: " + err.Error()}
		}
		rendered, rerr := r.Render(articleMarkdown(article, related))
		if rerr != nil {
			return articleRenderedMsg{id: article.ID, content: fmt.Sprintf("# Error\n\nFailed to render article: %s\n\nPress Escape to go back.", rerr.Error())}
		}
		return articleRenderedMsg{id: article.ID, content: rendered}
	}
}

func articleMarkdown(article *storage.Article, related []*storage.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", article.Title)

	meta := []string{}
	if article.Category != "" {
		meta = append(meta, article.Category)
	}
	if article.Date != "" {
		meta = append(meta, article.Date)
	}
	if article.Author != "" {
		meta = append(meta, "by "+article.Author)
	}
	if article.ReadTime > 0 {
		meta = append(meta, fmt.Sprintf("%d min read", article.ReadTime))
	}
	meta = append(meta, MsgViews(article.Views))
	fmt.Fprintf(&b, "*%s*\n\n", strings.Join(meta, " · "))

	if article.Excerpt != "" {
		fmt.Fprintf(&b, "> %s\n\n", article.Excerpt)
	}

	if article.AudioURL != "" {
		fmt.Fprintf(&b, "🎧 [Listen](%s)\n\n", article.AudioURL)
	}
	if len(article.Media) > 0 {
		b.WriteString("**Media:**\n")
		for _, m := range article.Media {
			label := string(m.Type)
			if m.Caption != "" {
				label += ": " + m.Caption
			}
			fmt.Fprintf(&b, "- [%s](%s)\n", label, m.Src)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	b.WriteString(article.Content)
	b.WriteString("\n\n")

	if len(article.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for _, s := range article.Sources {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	if len(related) > 0 {
		b.WriteString("## Related\n\n")
		for i, r := range related {
			fmt.Fprintf(&b, "%d. %s\n", i+1, r.Title)
		}
	}
	return b.String()
}

// debounceSearch waits before applying a home search so typing stays cheap.
func (a *App) debounceSearch(query string) tea.Cmd {
	a.searchSeq++
	a.pendingSearch = query
	seq := a.searchSeq
	return tea.Tick(a.searchDebounce, func(time.Time) tea.Msg { return searchDebounceFireMsg{seq: seq} })
}

// applySearch sets the home search query. It resets the page like every
// other filter change.
func (a *App) applySearch(query string) {
	a.filters.SetSearchQuery(query)
	a.syncLists()
	a.homeList.Select(0)
}

func (a *App) performAdminSearch(query string) tea.Cmd {
	a.adminQuery = query
	if strings.TrimSpace(query) == "" {
		a.adminMatches = nil
		a.syncLists()
		return nil
	}
	searcher := a.searcher
	return func() tea.Msg {
		results, err := searcher.Search(query, adminSearchLimit)
		if err != nil {
			return errorMsg{err: wrapErr("search", err)}
		}
		return adminSearchMsg{query: query, ids: resultIDs(results)}
	}
}

func resultIDs(results []*search.Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Article.ID)
	}
	return ids
}

func (a *App) saveArticle(article *storage.Article) tea.Cmd {
	if a.publisher == nil {
		a.setStatus(MsgReadOnly, StatusWarn)
		return a.clearStatusLater()
	}
	a.setStatus(MsgSaving, StatusInfo)
	pub := a.publisher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		saved, err := pub.SaveArticle(ctx, article)
		return articleSavedMsg{article: saved, err: wrapErr("save article", err)}
	}
}

// toggleFeatured flips the featured flag on a copy of article and saves it.
func (a *App) toggleFeatured(article *storage.Article) tea.Cmd {
	updated := *article
	updated.Featured = !article.Featured
	return a.saveArticle(&updated)
}

func (a *App) deleteArticle(id string) tea.Cmd {
	if a.publisher == nil {
		a.setStatus(MsgReadOnly, StatusWarn)
		return a.clearStatusLater()
	}
	a.setStatus(MsgDeleting, StatusInfo)
	pub := a.publisher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		err := pub.DeleteArticle(ctx, id)
		return articleDeletedMsg{id: id, err: wrapErr("delete article", err)}
	}
}

func (a *App) renameCategory(oldName, newName string) tea.Cmd {
	if a.publisher == nil {
		a.setStatus(MsgReadOnly, StatusWarn)
		return a.clearStatusLater()
	}
	from, to, err := storage.ValidateRename(oldName, newName)
	if err != nil {
		a.setStatus(err.Error(), StatusWarn)
		return a.clearStatusLater()
	}
	a.setStatus(MsgRenaming, StatusInfo)
	pub := a.publisher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		settings, err := pub.RenameCategory(ctx, from, to)
		return categoryRenamedMsg{oldName: from, newName: to, settings: settings, err: wrapErr("rename category", err)}
	}
}

// applySaved merges a saved article into the list: it moves to the front and
// bumps the data version so lists scroll back to the top.
func (a *App) applySaved(msg articleSavedMsg) tea.Cmd {
	if msg.err != nil {
		a.setStatus(msg.err.Error(), StatusError)
		return a.clearStatusLater()
	}
	if msg.article == nil {
		return nil
	}
	saved := storage.Normalize(*msg.article)
	a.articles = storage.PrependByID(a.articles, &saved)
	a.nav.BumpDataVersion()
	a.updateSearchIndex([]*storage.Article{&saved})
	a.syncLists()
	a.setStatus(MsgArticleSaved, StatusSuccess)
	return a.clearStatusLater()
}

func (a *App) applyDeleted(msg articleDeletedMsg) tea.Cmd {
	if msg.err != nil {
		a.setStatus(msg.err.Error(), StatusError)
		return a.clearStatusLater()
	}
	kept := a.articles[:0:0]
	for _, art := range a.articles {
		if art.ID != msg.id {
			kept = append(kept, art)
		}
	}
	a.articles = kept
	if l, ok := a.searcher.(search.UpdateListener); ok {
		l.OnArticleDeleted(msg.id)
	}
	a.nav.BumpDataVersion()
	a.nav.DropMissingArticle(a.exists)
	a.setStatus(MsgArticleDeleted, StatusSuccess)
	return tea.Batch(a.afterNavigation(), a.clearStatusLater())
}

// applyRenamed rewrites the category on every loaded article and takes the
// returned settings as the new navbar.
func (a *App) applyRenamed(msg categoryRenamedMsg) tea.Cmd {
	if msg.err != nil {
		a.setStatus(msg.err.Error(), StatusError)
		return a.clearStatusLater()
	}
	var changed []*storage.Article
	for i, art := range a.articles {
		if art.Category == msg.oldName {
			updated := *art
			updated.Category = msg.newName
			a.articles[i] = &updated
			changed = append(changed, &updated)
		}
	}
	a.settings = storage.NormalizeSettings(msg.settings)
	if a.filters.ActiveCategory() == msg.oldName {
		a.filters.SetCategory(msg.newName)
	}
	a.updateSearchIndex(changed)
	a.nav.BumpDataVersion()
	a.syncLists()
	a.setStatus(MsgCategoryRenamed(msg.oldName, msg.newName), StatusSuccess)
	return a.clearStatusLater()
}

func (a *App) openMedia(article *storage.Article) tea.Cmd {
	launcher := a.launcher
	return func() tea.Msg {
		target, err := launcher.OpenArticle(article)
		if err != nil {
			debuglog.Warnf("open media for %s: %v", article.ID, err)
		}
		return mediaOpenedMsg{target: target, err: err}
	}
}
