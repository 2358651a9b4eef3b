package tui

import (
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/gazette/internal/config"
	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/filter"
	"github.com/pders01/gazette/internal/media"
	"github.com/pders01/gazette/internal/navigation"
	"github.com/pders01/gazette/internal/search"
	"github.com/pders01/gazette/internal/source"
	"github.com/pders01/gazette/internal/storage"
)

// Options wires the app to its collaborators. Only Source is required.
type Options struct {
	Source source.Source
	// Publisher enables admin writes; nil leaves the console read-only.
	Publisher source.Publisher
	// Searcher backs admin search; nil searches the loaded list in memory.
	Searcher search.Searcher
	Launcher *media.Launcher
	// InitialLocation is the deep link the session starts at.
	InitialLocation string
	Offline         bool
	Now             func() time.Time
}

type promptKind int

const (
	promptNone promptKind = iota
	promptPIN
	promptRename
	promptDelete
)

const (
	bootstrapTimeout      = 30 * time.Second
	defaultSearchDebounce = 150 * time.Millisecond
	defaultStatusTTL      = 4 * time.Second
)

type App struct {
	config     *config.Config
	src        source.Source
	publisher  source.Publisher
	searcher   search.Searcher
	launcher   *media.Launcher
	nav        *navigation.Controller
	keys       keyMap
	keyHandler *KeyHandler
	now        func() time.Time
	offline    bool

	articles      []*storage.Article
	settings      storage.Settings
	filters       filter.State
	bootstrapping bool
	seenVersion   int

	homeList    list.Model
	archiveList list.Model
	adminList   list.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model
	searchInput textinput.Model
	promptInput textinput.Model
	prompt      promptKind

	adminUnlocked bool
	adminQuery    string
	adminMatches  []string
	renameFrom    string
	deleteID      string

	renderedID      string
	glamourRenderer *glamour.TermRenderer
	rendererWidth   int

	searchSeq      int
	pendingSearch  string
	searchDebounce time.Duration

	status     string
	statusKind StatusKind
	statusSeq  int
	statusTTL  time.Duration
	err        error

	width  int
	height int
}

func newList(title string) list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	return l
}

func NewApp(cfg *config.Config, opts Options) *App {
	ApplyTheme(cfg.UI.Colors)

	history := navigation.NewMemoryHistory(opts.InitialLocation, cfg.Navigation.HistoryLimit)
	nav := navigation.New(history, opts.Source, navigation.Options{
		HomeDelay:    cfg.Navigation.HomeDelay,
		ArticleDelay: cfg.Navigation.ArticleDelay,
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = HeaderStyle

	si := textinput.New()
	si.Placeholder = "Search title, excerpt or author..."
	si.CharLimit = 256

	pi := textinput.New()
	pi.CharLimit = 128

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	app := &App{
		config:        cfg,
		src:           opts.Source,
		publisher:     opts.Publisher,
		searcher:      opts.Searcher,
		launcher:      opts.Launcher,
		nav:           nav,
		keys:          newKeyMap(cfg.Keys),
		now:           now,
		offline:       opts.Offline,
		articles:      []*storage.Article{},
		settings:      storage.DefaultSettings(),
		filters:       filter.NewState(),
		bootstrapping: true,
		homeList:      newList("› latest stories"),
		archiveList:   newList("› archive"),
		adminList:     newList("› admin"),
		viewport:      viewport.New(0, 0),
		spinner:       sp,
		help:          help.New(),
		searchInput:   si,
		promptInput:   pi,

		searchDebounce: defaultSearchDebounce,
		statusTTL:      defaultStatusTTL,
	}
	if app.searcher == nil {
		app.searcher = search.NewEngine(app)
	}
	if app.launcher == nil {
		app.launcher = media.NewLauncher(cfg)
	}
	app.keyHandler = NewKeyHandler(app, cfg)
	app.setSize(80, 24)
	return app
}

// GetArticles exposes the loaded list to the in-memory search engine.
func (a *App) GetArticles() ([]*storage.Article, error) {
	return a.articles, nil
}

func (a *App) exists(id string) bool {
	return storage.FindByID(a.articles, id) != nil
}

func (a *App) screen() Screen {
	return composeScreen(a.bootstrapping, a.nav, a.articles, a.filters, a.now())
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wordWrapWidth := (a.width * 9) / 10
	maxWidth, minWidth := a.config.UI.Article.WordWrapMaxWidth, a.config.UI.Article.WordWrapMinWidth
	if maxWidth > 0 && wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if minWidth > 0 && wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}
	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) setSize(width, height int) {
	a.width = width
	a.height = height
	// header (2) + separator and status (2)
	body := max(height-4, 3)
	a.homeList.SetSize(width, body)
	a.archiveList.SetSize(width, max(body-2, 3))
	a.adminList.SetSize(width, max(body-1, 3))
	a.viewport.Width = width
	a.viewport.Height = body
	a.searchInput.Width = max(width-12, 10)
	a.promptInput.Width = max(width/2, 20)
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.bootstrap(),
		a.spinner.Tick,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.setSize(msg.Width, msg.Height)
		if a.nav.View() == navigation.ViewArticle && a.renderedID != "" {
			cmds = append(cmds, a.renderSelected())
		}

	case tea.KeyMsg:
		a.err = nil
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if a.bootstrapping || a.nav.Loading() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case bootstrapMsg:
		cmds = append(cmds, a.applySnapshot(msg))

	case navigation.TransitionMsg:
		cmds = append(cmds, a.nav.Update(msg))
		cmds = append(cmds, a.afterNavigation())

	case navigation.ScrollTopMsg:
		a.homeList.Select(0)

	case navigation.ViewRecordedMsg:
		if msg.Err != nil {
			debuglog.WithFields(map[string]any{"article": msg.ID}).Warnf("recording view: %v", msg.Err)
			break
		}
		a.articles = storage.ReplaceByID(a.articles, msg.Article)
		a.syncLists()
		if a.nav.View() == navigation.ViewArticle && a.nav.SelectedArticleID() == msg.ID {
			cmds = append(cmds, a.renderSelected())
		}

	case articleRenderedMsg:
		if a.nav.View() == navigation.ViewArticle && a.nav.SelectedArticleID() == msg.id {
			keepOffset := a.renderedID == msg.id
			offset := a.viewport.YOffset
			a.viewport.SetContent(msg.content)
			if keepOffset {
				a.viewport.SetYOffset(offset)
			} else {
				a.viewport.GotoTop()
			}
			a.renderedID = msg.id
		}

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq {
			a.applySearch(a.pendingSearch)
		}

	case adminSearchMsg:
		if msg.query == a.adminQuery {
			a.adminMatches = msg.ids
			a.syncLists()
			a.setStatus(MsgResultsCount(len(msg.ids)), StatusInfo)
		}

	case articleSavedMsg:
		cmds = append(cmds, a.applySaved(msg))

	case articleDeletedMsg:
		cmds = append(cmds, a.applyDeleted(msg))

	case categoryRenamedMsg:
		cmds = append(cmds, a.applyRenamed(msg))

	case mediaOpenedMsg:
		switch {
		case errors.Is(msg.err, media.ErrNothingToOpen):
			a.setStatus(MsgNothingToOpen, StatusWarn)
			cmds = append(cmds, a.clearStatusLater())
		case msg.err != nil:
			a.err = msg.err
		default:
			a.setStatus("Opened "+truncateMiddle(msg.target, 50), StatusSuccess)
		}

	case statusClearMsg:
		if msg.seq == a.statusSeq {
			a.status = ""
		}

	case errorMsg:
		a.err = msg.err
	}

	if a.nav.View() == navigation.ViewArticle {
		switch msg.(type) {
		case tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

// applySnapshot installs bootstrap or refresh results and resolves the
// initial deep link.
func (a *App) applySnapshot(msg bootstrapMsg) tea.Cmd {
	first := a.bootstrapping
	a.bootstrapping = false
	a.articles = msg.snap.Articles
	a.settings = msg.snap.Settings
	if !first {
		a.nav.BumpDataVersion()
		a.nav.DropMissingArticle(a.exists)
	}
	a.syncLists()
	a.updateSearchIndex(a.articles)

	errs, kind := 0, StatusInfo
	if msg.snap.Err != nil {
		// already logged by the bootstrap; the reader only sees a count
		errs, kind = 1, StatusWarn
	}
	docCount := -1
	if ds, ok := a.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			docCount = n
		}
	}
	a.setStatus(MsgRefreshSummary(len(a.articles), errs, docCount), kind)
	debuglog.Infof("bootstrap: %d articles, layout %s", len(a.articles), a.settings.HomeLayout)

	var cmds []tea.Cmd
	if first {
		cmds = append(cmds, a.nav.Bootstrap(a.exists))
	}
	cmds = append(cmds, a.afterNavigation())
	cmds = append(cmds, a.clearStatusLater())
	return tea.Batch(cmds...)
}

// afterNavigation refreshes whatever the new view needs.
func (a *App) afterNavigation() tea.Cmd {
	if a.nav.DataVersion() != a.seenVersion {
		a.seenVersion = a.nav.DataVersion()
		a.homeList.Select(0)
	}
	a.syncLists()

	var cmds []tea.Cmd
	if a.nav.Loading() {
		cmds = append(cmds, a.spinner.Tick)
	}
	if a.nav.View() == navigation.ViewArticle && a.renderedID != a.nav.SelectedArticleID() {
		a.renderedID = ""
		cmds = append(cmds, a.renderSelected())
	}
	return tea.Batch(cmds...)
}

// syncLists rebuilds the list models from the current screen.
func (a *App) syncLists() {
	scr := composeScreen(false, a.nav, a.articles, a.filters, a.now())

	switch scr.Kind {
	case ScreenHome:
		items := make([]list.Item, 0, len(scr.Display)+1)
		if scr.Featured != nil {
			items = append(items, articleItem{article: scr.Featured, hero: true})
		}
		for _, art := range scr.Display {
			items = append(items, articleItem{article: art})
		}
		a.homeList.SetItems(items)
		a.homeList.Title = a.homeTitle(scr)
		a.applyLayout()

	case ScreenArchive:
		items := make([]list.Item, len(scr.Archive.Items))
		for i, art := range scr.Archive.Items {
			items[i] = articleItem{article: art}
		}
		a.archiveList.SetItems(items)

	case ScreenAdmin:
		var items []list.Item
		for _, art := range a.articles {
			if a.adminMatches != nil && !contains(a.adminMatches, art.ID) {
				continue
			}
			items = append(items, adminItem{article: art})
		}
		a.adminList.SetItems(items)
	}
}

func (a *App) homeTitle(scr Screen) string {
	if scr.Default {
		return "› latest stories"
	}
	title := "› " + MsgResultsCount(len(scr.Display))
	if q := a.filters.SearchQuery(); q != "" {
		title += " for \"" + q + "\""
	}
	if c := a.filters.ActiveCategory(); c != filter.AllCategories {
		title += " in " + c
	}
	return title
}

// applyLayout maps the settings' home layout onto the list delegate.
func (a *App) applyLayout() {
	d := list.NewDefaultDelegate()
	if a.settings.HomeLayout == storage.LayoutHeroList {
		d.ShowDescription = false
		d.SetSpacing(0)
	}
	a.homeList.SetDelegate(d)
}

func (a *App) updateSearchIndex(articles []*storage.Article) {
	if l, ok := a.searcher.(search.UpdateListener); ok {
		l.OnArticlesUpdated(articles)
	}
}

// categories lists the navbar categories: the configured ones, else those
// present in the articles, always led by AllCategories.
func (a *App) categories() []string {
	out := []string{filter.AllCategories}
	if len(a.settings.NavCategories) > 0 {
		return append(out, a.settings.NavCategories...)
	}
	for _, art := range a.articles {
		if art.Category != "" && art.Category != filter.AllCategories && !contains(out, art.Category) {
			out = append(out, art.Category)
		}
	}
	return out
}

func contains(items []string, s string) bool {
	for _, v := range items {
		if v == s {
			return true
		}
	}
	return false
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKind = kind
	a.statusSeq++
}

func (a *App) clearStatusLater() tea.Cmd {
	seq := a.statusSeq
	return tea.Tick(a.statusTTL, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

type bootstrapMsg struct {
	snap source.Snapshot
}

type articleRenderedMsg struct {
	id      string
	content string
}

type searchDebounceFireMsg struct {
	seq int
}

type adminSearchMsg struct {
	query string
	ids   []string
}

type articleSavedMsg struct {
	article *storage.Article
	err     error
}

type articleDeletedMsg struct {
	id  string
	err error
}

type categoryRenamedMsg struct {
	oldName  string
	newName  string
	settings storage.Settings
	err      error
}

type mediaOpenedMsg struct {
	target string
	err    error
}

type statusClearMsg struct {
	seq int
}

type errorMsg struct {
	err error
}
