package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/gazette/internal/filter"
)

const skeletonRows = 6

func (a *App) View() string {
	scr := a.screen()

	var body string
	switch scr.Kind {
	case ScreenGridSkeleton:
		body = renderGridSkeleton(a.width, skeletonRows, a.spinner.View())
	case ScreenArticleSkeleton:
		body = renderArticleSkeleton(a.width, a.spinner.View())
	case ScreenHome:
		body = a.renderHome(scr)
	case ScreenArchive:
		body = a.renderArchive(scr)
	case ScreenArticle:
		body = a.viewport.View()
	case ScreenAdmin:
		body = a.renderAdmin()
	}

	rows := []string{a.renderHeader(scr), body, a.renderFooter(scr)}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderHeader is the site name and, on list views, the category navbar.
func (a *App) renderHeader(scr Screen) string {
	name := a.settings.SiteName
	if name == "" {
		name = AppName
	}
	title := LogoStyle.Render(truncateEnd(name, a.width/3))
	if a.offline {
		title += " " + StatusWarnStyle.Render("["+MsgOffline+"]")
	}

	switch scr.Kind {
	case ScreenHome, ScreenArchive, ScreenGridSkeleton:
		tabs := renderTabs(a.categories(), a.filters.ActiveCategory())
		return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", tabs)
	case ScreenArticle:
		return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", CategoryStyle.Render(scr.Article.Category))
	case ScreenAdmin:
		return lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", HeaderStyle.Render("admin"))
	}
	return title
}

func renderTabs(labels []string, active string) string {
	var out []string
	for _, l := range labels {
		if l == active {
			out = append(out, ActiveTabStyle.Render(l))
		} else {
			out = append(out, TabStyle.Render(l))
		}
	}
	return strings.Join(out, "")
}

func (a *App) renderHome(scr Screen) string {
	if len(a.articles) == 0 {
		return renderCentered(a.width, a.homeList.Height(), GetWelcomeMessage())
	}
	if len(scr.Display) == 0 && scr.Featured == nil {
		return renderCentered(a.width, a.homeList.Height(), renderMuted(MsgNoResults))
	}
	return a.homeList.View()
}

func (a *App) renderArchive(scr Screen) string {
	var dates []string
	active := ""
	for f := filter.DateAll; ; {
		dates = append(dates, f.Label())
		if f == scr.DateFilter {
			active = f.Label()
		}
		if f = f.Next(); f == filter.DateAll {
			break
		}
	}
	tabs := renderTabs(dates, active)

	page := scr.Archive
	pager := renderMuted(fmt.Sprintf("page %d/%d • %s", page.Number, max(page.TotalPages, 1), MsgResultsCount(page.TotalCount)))

	body := a.archiveList.View()
	if page.TotalCount == 0 {
		body = renderCentered(a.width, a.archiveList.Height(), renderMuted(MsgNoResults))
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabs, body, pager)
}

func (a *App) renderAdmin() string {
	if len(a.adminList.Items()) == 0 {
		return renderCentered(a.width, a.adminList.Height(), renderMuted(MsgNoResults))
	}
	return a.adminList.View()
}

func (a *App) renderFooter(scr Screen) string {
	rows := []string{SeparatorStyle.Render(strings.Repeat("─", max(a.width, 1)))}

	switch {
	case a.prompt != promptNone:
		rows = append(rows, renderInputFrame(a.promptInput.View(), true, a.promptInput.Width))
	case a.searchInput.Focused():
		rows = append(rows, renderInputFrame(a.searchInput.View(), true, a.searchInput.Width))
	}

	rows = append(rows, a.renderStatus(scr))
	rows = append(rows, a.help.View(a.helpFor(scr)))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) renderStatus(scr Screen) string {
	if a.err != nil {
		return StatusErrorStyle.Render(truncateEnd("Error: "+a.err.Error(), a.width))
	}
	if scr.Kind == ScreenGridSkeleton || scr.Kind == ScreenArticleSkeleton {
		return a.spinner.View() + " " + statusStyle(StatusInfo).Render(a.status)
	}
	line := a.status
	if line == "" {
		if q := a.filters.SearchQuery(); q != "" && scr.Kind != ScreenAdmin {
			line = "search: " + q
		}
	}
	return statusStyle(a.statusKind).Render(truncateEnd(line, a.width))
}

// helpFor picks the bindings shown for a screen.
func (a *App) helpFor(scr Screen) viewHelp {
	k := a.keys
	global := []key.Binding{k.Refresh, k.Admin, k.HistoryBack, k.HistoryForward, k.Help, k.Quit}

	var short []key.Binding
	switch scr.Kind {
	case ScreenHome:
		short = []key.Binding{k.Enter, k.Search, k.Category, k.Archive, k.OpenMedia}
	case ScreenArchive:
		short = []key.Binding{k.Enter, k.DateFilter, k.PrevPage, k.NextPage, k.Category, k.Back}
	case ScreenArticle:
		short = []key.Binding{k.Related, k.OpenMedia, k.Archive, k.Back}
	case ScreenAdmin:
		short = []key.Binding{k.Search, k.Featured, k.Rename, k.Delete, k.Back}
	default:
		short = []key.Binding{k.Quit}
	}
	return viewHelp{
		short: append(short, k.Help),
		full:  [][]key.Binding{short, global, {k.Home}},
	}
}

// renderGridSkeleton draws placeholder cards while lists load.
func renderGridSkeleton(width, rows int, spin string) string {
	cardWidth := max((width-4)/3, 8)
	block := SkeletonStyle.Render(strings.Repeat("▒", cardWidth))
	line := SkeletonStyle.Render(strings.Repeat("░", max(cardWidth-4, 4)))

	card := lipgloss.JoinVertical(lipgloss.Left, block, block, line, "")
	row := lipgloss.JoinHorizontal(lipgloss.Top, card, " ", card, " ", card)

	out := []string{spin}
	for i := 0; i < rows/3; i++ {
		out = append(out, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

// renderArticleSkeleton draws a placeholder article page.
func renderArticleSkeleton(width int, spin string) string {
	w := max(width-4, 10)
	out := []string{
		spin,
		SkeletonStyle.Render(strings.Repeat("▒", w*2/3)),
		SkeletonStyle.Render(strings.Repeat("░", w/3)),
		"",
	}
	for i := 0; i < skeletonRows; i++ {
		n := w - (i%3)*w/8
		out = append(out, SkeletonStyle.Render(strings.Repeat("░", n)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}

// renderInputFrame draws a rounded border around a rendered input.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// truncateEnd shortens s to at most limit runes, ending in an ellipsis.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// truncateMiddle keeps both ends of s, which is what matters for URLs.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	left := (limit - 1) / 2
	right := limit - 1 - left
	return string(r[:left]) + "…" + string(r[len(r)-right:])
}
