package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/pders01/gazette/internal/config"
	"github.com/pders01/gazette/internal/filter"
	"github.com/pders01/gazette/internal/storage"
)

func TestKeyMapUsesConfiguredModifier(t *testing.T) {
	cfg := config.TestConfig()
	cfg.Keys.Modifier = "alt"
	km := newKeyMap(cfg.Keys)

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s"), Alt: true}, km.Search))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlS}, km.Search))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
}

func TestCycleCategoryWraps(t *testing.T) {
	app := newTestApp(t, newFakeBackend(sampleArticles()...))

	var seen []string
	for range 4 {
		app.keyHandler.cycleCategory()
		seen = append(seen, app.filters.ActiveCategory())
	}
	assert.Equal(t, []string{"Politics", "Sports", "Cooking", filter.AllCategories}, seen)
}

func TestCycleCategoryPrefersNavbar(t *testing.T) {
	backend := newFakeBackend(sampleArticles()...)
	backend.settings.NavCategories = []string{"Cooking"}
	app := newTestApp(t, backend)

	assert.Equal(t, []string{filter.AllCategories, "Cooking"}, app.categories())
}

func TestNavigateBackClearsFiltersOnHome(t *testing.T) {
	app := newTestApp(t, newFakeBackend(sampleArticles()...))
	app.filters.SetSearchQuery("madrid")

	cmd := app.keyHandler.navigateBack()
	assert.Nil(t, cmd)
	assert.True(t, app.filters.IsDefault())
}

func TestKeysIgnoredWhileLoading(t *testing.T) {
	app := newTestApp(t, newFakeBackend(sampleArticles()...))
	app.homeList.Select(1)
	_, _ = app.Update(keyMsg("enter"))

	_, cmd := app.Update(keyMsg("c"))
	assert.Nil(t, cmd)
	assert.Equal(t, filter.AllCategories, app.filters.ActiveCategory())
}

func TestSelectedArticle(t *testing.T) {
	art := &storage.Article{ID: "x"}
	assert.Equal(t, art, selectedArticle(articleItem{article: art}))
	assert.Equal(t, art, selectedArticle(adminItem{article: art}))
	assert.Nil(t, selectedArticle(nil))
}

func TestArticleMarkdown(t *testing.T) {
	art := &storage.Article{
		ID:       "a1",
		Title:    "Elecciones",
		Category: "Politics",
		Author:   "Ana",
		ReadTime: 4,
		Views:    1,
		Content:  "Body text.",
		AudioURL: "https://cdn.example.com/a.mp3",
		Media:    []storage.Media{{Type: storage.MediaImage, Src: "https://cdn.example.com/p.jpg", Caption: "Plaza"}},
		Sources:  []string{"https://example.com/source"},
	}
	related := []*storage.Article{{ID: "a4", Title: "Debate"}}

	md := articleMarkdown(art, related)
	assert.Contains(t, md, "# Elecciones")
	assert.Contains(t, md, "by Ana")
	assert.Contains(t, md, "4 min read")
	assert.Contains(t, md, "1 view")
	assert.Contains(t, md, "[image: Plaza](https://cdn.example.com/p.jpg)")
	assert.Contains(t, md, "[Listen](https://cdn.example.com/a.mp3)")
	assert.Contains(t, md, "## Sources")
	assert.Contains(t, md, "1. Debate")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", truncateEnd("hello", 0))
	assert.Equal(t, "hello", truncateEnd("hello", 5))
	assert.Equal(t, "hel…", truncateEnd("hello", 4))
	assert.Equal(t, "…", truncateEnd("hello", 1))
	assert.Equal(t, "ñañ…", truncateEnd("ñañaña", 4))

	assert.Equal(t, "https://example.com/a", truncateMiddle("https://example.com/a", 40))
	got := truncateMiddle("https://example.com/very/long/path/file.mp4", 15)
	assert.Len(t, []rune(got), 15)
	assert.Contains(t, got, "…")
	assert.True(t, len(got) > 0 && got[:7] == "https:/")
}

func TestStatusStyleByKind(t *testing.T) {
	assert.Equal(t, StatusErrorStyle.Render("x"), statusStyle(StatusError).Render("x"))
	assert.Equal(t, StatusInfoStyle.Render("x"), statusStyle(StatusKind(42)).Render("x"))
}
