package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/gazette/internal/config"
	"github.com/pders01/gazette/internal/navigation"
	"github.com/pders01/gazette/internal/storage"
)

type KeyHandler struct {
	app    *App
	config *config.Config
	keys   keyMap
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, config: cfg, keys: app.keys}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.app.prompt != promptNone {
		return kh.handlePrompt(msg)
	}
	if kh.app.searchInput.Focused() {
		return kh.handleSearchInput(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}
	return kh.delegateToCharm(msg)
}

// handleCustomKeys handles the keys every view shares, then the view's own.
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a, k := kh.app, kh.keys

	switch {
	case key.Matches(msg, k.Quit):
		return a, tea.Quit, true
	case key.Matches(msg, k.Help):
		a.help.ShowAll = !a.help.ShowAll
		return a, nil, true
	case key.Matches(msg, k.Refresh):
		return a, tea.Batch(a.refresh(), a.spinner.Tick), true
	case key.Matches(msg, k.Admin):
		model, cmd := kh.openAdmin()
		return model, cmd, true
	case key.Matches(msg, k.HistoryBack):
		if a.nav.Back(a.exists) {
			return a, a.afterNavigation(), true
		}
		return a, nil, true
	case key.Matches(msg, k.HistoryForward):
		if a.nav.Forward(a.exists) {
			return a, a.afterNavigation(), true
		}
		return a, nil, true
	case key.Matches(msg, k.Home):
		return a, kh.homeWithReset(), true
	}

	if a.bootstrapping || a.nav.Loading() {
		// only navigation keys while a transition is in flight
		if key.Matches(msg, k.Back) {
			return a, kh.navigateBack(), true
		}
		return a, nil, true
	}

	switch a.screen().Kind {
	case ScreenHome:
		return kh.handleHomeKeys(msg)
	case ScreenArchive:
		return kh.handleArchiveKeys(msg)
	case ScreenArticle:
		return kh.handleArticleKeys(msg)
	case ScreenAdmin:
		return kh.handleAdminKeys(msg)
	}
	return a, nil, false
}

func (kh *KeyHandler) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a, k := kh.app, kh.keys
	switch {
	case key.Matches(msg, k.Back):
		return a, kh.navigateBack(), true
	case key.Matches(msg, k.Search):
		return a, kh.focusSearch(), true
	case key.Matches(msg, k.Archive):
		return a, kh.toArchive(), true
	case key.Matches(msg, k.Category):
		kh.cycleCategory()
		return a, nil, true
	case key.Matches(msg, k.OpenMedia):
		if art := selectedArticle(a.homeList.SelectedItem()); art != nil {
			return a, a.openMedia(art), true
		}
		return a, nil, true
	case key.Matches(msg, k.Enter):
		return a, kh.openSelected(a.homeList.SelectedItem()), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleArchiveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a, k := kh.app, kh.keys
	switch {
	case key.Matches(msg, k.Back):
		return a, kh.navigateBack(), true
	case key.Matches(msg, k.Search):
		return a, kh.focusSearch(), true
	case key.Matches(msg, k.Category):
		kh.cycleCategory()
		return a, nil, true
	case key.Matches(msg, k.DateFilter):
		a.filters.SetDateFilter(a.filters.DateFilter().Next())
		a.syncLists()
		a.archiveList.Select(0)
		return a, nil, true
	case key.Matches(msg, k.NextPage):
		if page := a.screen().Archive; page.HasNext() {
			a.filters.SetPage(page.Number + 1)
			a.syncLists()
			a.archiveList.Select(0)
		}
		return a, nil, true
	case key.Matches(msg, k.PrevPage):
		if page := a.screen().Archive; page.HasPrev() {
			a.filters.SetPage(page.Number - 1)
			a.syncLists()
			a.archiveList.Select(0)
		}
		return a, nil, true
	case key.Matches(msg, k.OpenMedia):
		if art := selectedArticle(a.archiveList.SelectedItem()); art != nil {
			return a, a.openMedia(art), true
		}
		return a, nil, true
	case key.Matches(msg, k.Enter):
		return a, kh.openSelected(a.archiveList.SelectedItem()), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleArticleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a, k := kh.app, kh.keys
	scr := a.screen()
	switch {
	case key.Matches(msg, k.Back):
		return a, kh.navigateBack(), true
	case key.Matches(msg, k.Archive):
		return a, kh.toArchive(), true
	case key.Matches(msg, k.OpenMedia):
		return a, a.openMedia(scr.Article), true
	case key.Matches(msg, k.Related):
		n := int(msg.String()[0] - '1')
		if n >= 0 && n < len(scr.Related) {
			a.setStatus(MsgLoadingArticle, StatusInfo)
			return a, tea.Batch(a.nav.NavigateToArticle(scr.Related[n].ID), a.afterNavigation()), true
		}
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleAdminKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	a, k := kh.app, kh.keys
	selected := selectedArticle(a.adminList.SelectedItem())

	switch {
	case key.Matches(msg, k.Back):
		if a.adminMatches != nil {
			a.searchInput.Reset()
			return a, a.performAdminSearch(""), true
		}
		return a, kh.navigateBack(), true
	case key.Matches(msg, k.Search):
		return a, kh.focusSearch(), true
	case key.Matches(msg, k.Delete):
		if selected != nil {
			a.deleteID = selected.ID
			kh.startPrompt(promptDelete, "", "Delete \""+truncateEnd(selected.Title, 40)+"\"? (y/n) ")
		}
		return a, nil, true
	case key.Matches(msg, k.Featured):
		if selected != nil {
			return a, a.toggleFeatured(selected), true
		}
		return a, nil, true
	case key.Matches(msg, k.Rename):
		if selected != nil {
			a.renameFrom = selected.Category
			kh.startPrompt(promptRename, selected.Category, "Rename '"+selected.Category+"' to: ")
			return a, textinput.Blink, true
		}
		return a, nil, true
	case key.Matches(msg, k.Enter):
		return a, kh.openSelected(a.adminList.SelectedItem()), true
	}
	return a, nil, false
}

// delegateToCharm lets the bubbles components handle everything else.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	switch a.screen().Kind {
	case ScreenHome:
		a.homeList, cmd = a.homeList.Update(msg)
	case ScreenArchive:
		a.archiveList, cmd = a.archiveList.Update(msg)
	case ScreenAdmin:
		a.adminList, cmd = a.adminList.Update(msg)
	case ScreenArticle:
		a.viewport, cmd = a.viewport.Update(msg)
	}
	return a, cmd
}

func (kh *KeyHandler) handleSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	admin := a.nav.View() == navigation.ViewAdmin

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc", "enter", "tab", "down":
		a.searchInput.Blur()
		if admin && msg.String() == "enter" {
			return a, a.performAdminSearch(strings.TrimSpace(a.searchInput.Value()))
		}
		if !admin {
			// flush whatever the debounce has not applied yet
			a.applySearch(a.searchInput.Value())
		}
		return a, nil
	}

	prev := a.searchInput.Value()
	var cmd tea.Cmd
	a.searchInput, cmd = a.searchInput.Update(msg)
	if admin || a.searchInput.Value() == prev {
		return a, cmd
	}
	return a, tea.Batch(cmd, a.debounceSearch(a.searchInput.Value()))
}

func (kh *KeyHandler) handlePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	kind := a.prompt

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		kh.endPrompt()
		return a, nil
	}

	if kind == promptDelete {
		switch strings.ToLower(msg.String()) {
		case "y", "enter":
			id := a.deleteID
			kh.endPrompt()
			return a, a.deleteArticle(id)
		case "n":
			kh.endPrompt()
		}
		return a, nil
	}

	if msg.String() == "enter" {
		value := a.promptInput.Value()
		kh.endPrompt()
		switch kind {
		case promptPIN:
			if value != kh.config.Admin.PIN {
				a.setStatus(MsgWrongPIN, StatusError)
				return a, a.clearStatusLater()
			}
			a.adminUnlocked = true
			return kh.enterAdmin()
		case promptRename:
			return a, a.renameCategory(a.renameFrom, value)
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.promptInput, cmd = a.promptInput.Update(msg)
	return a, cmd
}

func (kh *KeyHandler) startPrompt(kind promptKind, value, label string) {
	a := kh.app
	a.prompt = kind
	a.promptInput.Reset()
	a.promptInput.Prompt = label
	a.promptInput.EchoMode = textinput.EchoNormal
	if kind == promptPIN {
		a.promptInput.EchoMode = textinput.EchoPassword
		a.promptInput.EchoCharacter = '•'
	}
	a.promptInput.SetValue(value)
	a.promptInput.CursorEnd()
	if kind != promptDelete {
		a.promptInput.Focus()
	}
}

func (kh *KeyHandler) endPrompt() {
	a := kh.app
	a.prompt = promptNone
	a.promptInput.Blur()
	a.promptInput.Reset()
	a.deleteID = ""
}

// openAdmin asks for the PIN once per session.
func (kh *KeyHandler) openAdmin() (tea.Model, tea.Cmd) {
	a := kh.app
	if a.nav.View() == navigation.ViewAdmin {
		return a, nil
	}
	if !a.adminUnlocked && kh.config.Admin.PIN != "" {
		kh.startPrompt(promptPIN, "", "PIN: ")
		return a, textinput.Blink
	}
	return kh.enterAdmin()
}

func (kh *KeyHandler) enterAdmin() (tea.Model, tea.Cmd) {
	a := kh.app
	a.adminMatches = nil
	a.adminQuery = ""
	a.searchInput.Reset()
	cmd := a.nav.OpenAdmin()
	a.syncLists()
	a.adminList.Select(0)
	if a.publisher == nil {
		a.setStatus(MsgReadOnly, StatusWarn)
		return a, tea.Batch(cmd, a.clearStatusLater())
	}
	return a, cmd
}

func (kh *KeyHandler) focusSearch() tea.Cmd {
	a := kh.app
	if a.nav.View() == navigation.ViewAdmin {
		a.searchInput.SetValue(a.adminQuery)
	} else {
		a.searchInput.SetValue(a.filters.SearchQuery())
	}
	a.searchInput.CursorEnd()
	a.searchInput.Focus()
	return textinput.Blink
}

func (kh *KeyHandler) toArchive() tea.Cmd {
	a := kh.app
	cmd := a.nav.NavigateToArchive()
	a.syncLists()
	a.archiveList.Select(0)
	return cmd
}

// homeWithReset clears every filter before going home.
func (kh *KeyHandler) homeWithReset() tea.Cmd {
	a := kh.app
	a.filters.Reset()
	a.searchInput.Reset()
	a.searchSeq++
	cmd := a.nav.NavigateHome()
	a.syncLists()
	return tea.Batch(cmd, a.afterNavigation())
}

// navigateBack leaves the current view: article, archive and admin go home,
// and a filtered home drops its filters.
func (kh *KeyHandler) navigateBack() tea.Cmd {
	a := kh.app
	if a.nav.View() == navigation.ViewHome && !a.nav.Loading() {
		if !a.filters.IsDefault() {
			a.filters.Reset()
			a.searchInput.Reset()
			a.syncLists()
		}
		return nil
	}
	cmd := a.nav.NavigateHome()
	return tea.Batch(cmd, a.afterNavigation())
}

func (kh *KeyHandler) cycleCategory() {
	a := kh.app
	cats := a.categories()
	next := cats[0]
	for i, c := range cats {
		if c == a.filters.ActiveCategory() {
			next = cats[(i+1)%len(cats)]
			break
		}
	}
	a.filters.SetCategory(next)
	a.syncLists()
	a.homeList.Select(0)
	a.archiveList.Select(0)
}

func (kh *KeyHandler) openSelected(item any) tea.Cmd {
	art := selectedArticle(item)
	if art == nil {
		return nil
	}
	a := kh.app
	a.setStatus(MsgLoadingArticle, StatusInfo)
	return tea.Batch(a.nav.NavigateToArticle(art.ID), a.afterNavigation())
}

func selectedArticle(item any) *storage.Article {
	switch i := item.(type) {
	case articleItem:
		return i.article
	case adminItem:
		return i.article
	}
	return nil
}
