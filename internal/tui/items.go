package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/gazette/internal/storage"
)

type articleItem struct {
	article *storage.Article
	hero    bool
}

func (i articleItem) Title() string {
	if i.hero {
		return HeroStyle.Render("★ " + i.article.Title)
	}
	return ArticleTitleStyle.Render(i.article.Title)
}

func (i articleItem) Description() string {
	parts := []string{CategoryStyle.Render(i.article.Category)}
	if i.article.Date != "" {
		parts = append(parts, TimeStyle.Render(i.article.Date))
	}
	if i.article.ReadTime > 0 {
		parts = append(parts, TimeStyle.Render(fmt.Sprintf("%d min", i.article.ReadTime)))
	}
	excerpt := truncateEnd(i.article.Excerpt, 80)
	return lipgloss.NewStyle().Foreground(MutedColor).Render(excerpt) + " " + strings.Join(parts, " • ")
}

func (i articleItem) FilterValue() string { return i.article.Title }

type adminItem struct {
	article *storage.Article
}

func (i adminItem) Title() string {
	title := i.article.Title
	if i.article.Featured {
		return HeroStyle.Render("★ " + title)
	}
	return ArticleTitleStyle.Render(title)
}

func (i adminItem) Description() string {
	return lipgloss.NewStyle().
		Foreground(MutedColor).
		Render(fmt.Sprintf("%s • %s • %s • %s", i.article.Category, i.article.Date, i.article.Author, MsgViews(i.article.Views)))
}

func (i adminItem) FilterValue() string { return i.article.Title + " " + i.article.Category }
