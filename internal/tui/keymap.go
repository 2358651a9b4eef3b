package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/pders01/gazette/internal/config"
)

// keyMap is built from the configured bindings. Search, Admin, OpenMedia and
// Refresh take the modifier; the rest are plain keys.
type keyMap struct {
	Quit           key.Binding
	Search         key.Binding
	Admin          key.Binding
	OpenMedia      key.Binding
	Refresh        key.Binding
	Home           key.Binding
	Archive        key.Binding
	Category       key.Binding
	DateFilter     key.Binding
	NextPage       key.Binding
	PrevPage       key.Binding
	HistoryBack    key.Binding
	HistoryForward key.Binding
	Back           key.Binding
	Help           key.Binding
	Enter          key.Binding
	Related        key.Binding

	// admin console
	Delete   key.Binding
	Featured key.Binding
	Rename   key.Binding
}

func newKeyMap(cfg config.KeyConfig) keyMap {
	mod := cfg.Modifier + "+"
	b := cfg.Bindings
	return keyMap{
		Quit:           key.NewBinding(key.WithKeys(b.Quit, "ctrl+c"), key.WithHelp(b.Quit, "quit")),
		Search:         key.NewBinding(key.WithKeys(mod+b.Search), key.WithHelp(mod+b.Search, "search")),
		Admin:          key.NewBinding(key.WithKeys(mod+b.Admin), key.WithHelp(mod+b.Admin, "admin")),
		OpenMedia:      key.NewBinding(key.WithKeys(mod+b.OpenMedia), key.WithHelp(mod+b.OpenMedia, "open media")),
		Refresh:        key.NewBinding(key.WithKeys(mod+b.Refresh), key.WithHelp(mod+b.Refresh, "refresh")),
		Home:           key.NewBinding(key.WithKeys(b.Home), key.WithHelp(b.Home, "home")),
		Archive:        key.NewBinding(key.WithKeys(b.Archive), key.WithHelp(b.Archive, "archive")),
		Category:       key.NewBinding(key.WithKeys(b.Category), key.WithHelp(b.Category, "category")),
		DateFilter:     key.NewBinding(key.WithKeys(b.DateFilter), key.WithHelp(b.DateFilter, "date")),
		NextPage:       key.NewBinding(key.WithKeys(b.NextPage), key.WithHelp(b.NextPage, "next page")),
		PrevPage:       key.NewBinding(key.WithKeys(b.PrevPage), key.WithHelp(b.PrevPage, "prev page")),
		HistoryBack:    key.NewBinding(key.WithKeys(b.HistoryBack), key.WithHelp(b.HistoryBack, "back")),
		HistoryForward: key.NewBinding(key.WithKeys(b.HistoryForward), key.WithHelp(b.HistoryForward, "forward")),
		Back:           key.NewBinding(key.WithKeys(b.Back), key.WithHelp(b.Back, "close")),
		Help:           key.NewBinding(key.WithKeys(b.Help), key.WithHelp(b.Help, "help")),
		Enter:          key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Related:        key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "related")),
		Delete:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Featured:       key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "feature")),
		Rename:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename category")),
	}
}

// viewHelp adapts the key map to help.KeyMap for the current screen.
type viewHelp struct {
	short []key.Binding
	full  [][]key.Binding
}

func (h viewHelp) ShortHelp() []key.Binding  { return h.short }
func (h viewHelp) FullHelp() [][]key.Binding { return h.full }
