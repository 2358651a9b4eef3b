// Package navigation owns which screen is showing, which article is open and
// the debounced transitions between them. All methods are meant to be called
// from the bubbletea update loop; delayed work comes back as messages.
package navigation

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/storage"
)

type View int

const (
	ViewHome View = iota
	ViewArticle
	ViewArchive
	ViewAdmin
)

func (v View) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewArticle:
		return "article"
	case ViewArchive:
		return "archive"
	case ViewAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

const (
	DefaultHomeDelay     = 500 * time.Millisecond
	DefaultArticleDelay  = 600 * time.Millisecond
	defaultRecordTimeout = 10 * time.Second
)

// Recorder registers a read of an article and returns the updated record.
type Recorder interface {
	RecordView(ctx context.Context, id string) (*storage.Article, error)
}

// Exists reports whether an article id is present in the loaded list.
type Exists func(id string) bool

// Options tunes a Controller. Zero durations fall back to the defaults.
type Options struct {
	HomeDelay     time.Duration
	ArticleDelay  time.Duration
	RecordTimeout time.Duration
}

// TransitionMsg is delivered when a delayed transition's timer fires. It is
// applied only if no other navigation happened in between.
type TransitionMsg struct {
	Seq       uint64
	Target    View
	ArticleID string
}

// ViewRecordedMsg carries the outcome of a RecordView call.
type ViewRecordedMsg struct {
	ID      string
	Article *storage.Article
	Err     error
}

// ScrollTopMsg asks the current screen to return to its first row.
type ScrollTopMsg struct{}

type Controller struct {
	view        View
	selectedID  string
	loading     bool
	pending     bool
	seq         uint64
	dataVersion int

	history     History
	deepLinking bool
	recorder    Recorder

	homeDelay     time.Duration
	articleDelay  time.Duration
	recordTimeout time.Duration
}

// New returns a controller showing the home view. history may be nil, in
// which case deep linking is off from the start.
func New(history History, recorder Recorder, opts Options) *Controller {
	c := &Controller{
		view:          ViewHome,
		history:       history,
		deepLinking:   history != nil,
		recorder:      recorder,
		homeDelay:     opts.HomeDelay,
		articleDelay:  opts.ArticleDelay,
		recordTimeout: opts.RecordTimeout,
	}
	if c.homeDelay <= 0 {
		c.homeDelay = DefaultHomeDelay
	}
	if c.articleDelay <= 0 {
		c.articleDelay = DefaultArticleDelay
	}
	if c.recordTimeout <= 0 {
		c.recordTimeout = defaultRecordTimeout
	}
	return c
}

func (c *Controller) View() View                { return c.view }
func (c *Controller) SelectedArticleID() string { return c.selectedID }
func (c *Controller) Loading() bool             { return c.loading }
func (c *Controller) Pending() bool             { return c.pending }
func (c *Controller) DataVersion() int          { return c.dataVersion }
func (c *Controller) DeepLinking() bool         { return c.deepLinking }

// BumpDataVersion marks the article list as changed outside a navigation,
// for example after an admin save.
func (c *Controller) BumpDataVersion() {
	c.dataVersion++
}

// cancel supersedes whatever transition is in flight.
func (c *Controller) cancel() uint64 {
	c.seq++
	c.pending = false
	return c.seq
}

func (c *Controller) schedule(wait time.Duration, target View, id string) tea.Cmd {
	seq := c.cancel()
	c.pending = true
	return tea.Tick(wait, func(time.Time) tea.Msg {
		return TransitionMsg{Seq: seq, Target: target, ArticleID: id}
	})
}

// push records location in the history. The first failure turns deep
// linking off for the rest of the session; navigation keeps working from
// in-memory state.
func (c *Controller) push(location string) {
	if !c.deepLinking {
		return
	}
	if err := c.history.Push(location); err != nil {
		c.deepLinking = false
		debuglog.WithFields(map[string]any{"location": location}).
			Warnf("history unavailable, deep linking disabled: %v", err)
	}
}

// NavigateHome goes to the home feed after the home delay. When home is
// already showing it only scrolls back to the top.
func (c *Controller) NavigateHome() tea.Cmd {
	if c.view == ViewHome && !c.pending {
		return func() tea.Msg { return ScrollTopMsg{} }
	}
	cmd := c.schedule(c.homeDelay, ViewHome, "")
	c.loading = true
	c.push(HomeLocation)
	return cmd
}

// NavigateToArticle opens id after the article delay.
func (c *Controller) NavigateToArticle(id string) tea.Cmd {
	if id == "" {
		return nil
	}
	cmd := c.schedule(c.articleDelay, ViewArticle, id)
	c.loading = true
	c.push(ArticleLocation(id))
	return cmd
}

// NavigateToArchive switches to the archive immediately.
func (c *Controller) NavigateToArchive() tea.Cmd {
	c.cancel()
	c.loading = false
	c.view = ViewArchive
	c.selectedID = ""
	return nil
}

// OpenAdmin switches to the admin console immediately.
func (c *Controller) OpenAdmin() tea.Cmd {
	c.cancel()
	c.loading = false
	c.view = ViewAdmin
	c.selectedID = ""
	return nil
}

// DropMissingArticle goes home when the open article is no longer in the
// list, for example after a refresh or a delete. It reports whether it did.
func (c *Controller) DropMissingArticle(exists Exists) bool {
	if c.view != ViewArticle || c.selectedID == "" {
		return false
	}
	if exists != nil && exists(c.selectedID) {
		return false
	}
	debuglog.Infof("article %q is gone, returning home", c.selectedID)
	c.cancel()
	c.loading = false
	c.view = ViewHome
	c.selectedID = ""
	c.dataVersion++
	return true
}

// Update applies a fired transition. Stale transitions are dropped.
func (c *Controller) Update(msg TransitionMsg) tea.Cmd {
	if msg.Seq != c.seq || !c.pending {
		debuglog.Debugf("dropping superseded transition %d to %s", msg.Seq, msg.Target)
		return nil
	}
	c.pending = false
	c.loading = false

	switch msg.Target {
	case ViewHome:
		c.view = ViewHome
		c.selectedID = ""
		c.dataVersion++
		return nil
	case ViewArticle:
		c.view = ViewArticle
		c.selectedID = msg.ArticleID
		return c.record(msg.ArticleID)
	default:
		c.view = msg.Target
		c.selectedID = ""
		return nil
	}
}

// PopState syncs the controller with a location reached through back or
// forward.
func (c *Controller) PopState(location string, exists Exists) {
	c.cancel()
	c.loading = false

	id := ArticleID(location)
	switch {
	case id == "" && c.view == ViewArticle:
		c.view = ViewHome
		c.selectedID = ""
	case id != "" && id != c.selectedID:
		if exists != nil && exists(id) {
			c.view = ViewArticle
			c.selectedID = id
		} else {
			c.view = ViewHome
			c.selectedID = ""
		}
	}
}

// Back steps the history back and syncs to the new location. It reports
// false when there is nothing to go back to or deep linking is off.
func (c *Controller) Back(exists Exists) bool {
	if !c.deepLinking {
		return false
	}
	loc, ok := c.history.Back()
	if !ok {
		return false
	}
	c.PopState(loc, exists)
	return true
}

// Forward is the mirror of Back.
func (c *Controller) Forward(exists Exists) bool {
	if !c.deepLinking {
		return false
	}
	loc, ok := c.history.Forward()
	if !ok {
		return false
	}
	c.PopState(loc, exists)
	return true
}

// Bootstrap opens the article named by the initial location, with no delay,
// once the article list is known. Unknown ids leave the home view in place.
func (c *Controller) Bootstrap(exists Exists) tea.Cmd {
	if !c.deepLinking {
		return nil
	}
	id := ArticleID(c.history.Location())
	if id == "" {
		return nil
	}
	if exists == nil || !exists(id) {
		debuglog.Infof("deep link to unknown article %q, staying home", id)
		return nil
	}
	c.cancel()
	c.loading = false
	c.view = ViewArticle
	c.selectedID = id
	return c.record(id)
}

func (c *Controller) record(id string) tea.Cmd {
	if c.recorder == nil {
		return nil
	}
	recorder, timeout := c.recorder, c.recordTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		article, err := recorder.RecordView(ctx, id)
		return ViewRecordedMsg{ID: id, Article: article, Err: err}
	}
}
