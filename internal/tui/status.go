package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// StatusKind is the severity of the status line.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

func statusStyle(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}

// Canonical short status messages used across the app.
const (
	MsgRefreshing     = "Refreshing…"
	MsgLoadingArticle = "Loading article…"
	MsgSaving         = "Saving…"
	MsgDeleting       = "Deleting…"
	MsgRenaming       = "Renaming…"
	MsgNoResults      = "No results"
	MsgArticleSaved   = "Article saved"
	MsgArticleDeleted = "Article deleted"
	MsgWrongPIN       = "Incorrect PIN"
	MsgReadOnly       = "Admin is read-only in this session"
	MsgNothingToOpen  = "Nothing to open in this article"
	MsgOffline        = "offline"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgViews(n int) string {
	if n == 1 {
		return "1 view"
	}
	return fmt.Sprintf("%d views", n)
}

func MsgCategoryRenamed(oldName, newName string) string {
	return fmt.Sprintf("Renamed '%s' to '%s'", strings.TrimSpace(oldName), strings.TrimSpace(newName))
}

func MsgRefreshSummary(articles, errors, docCount int) string {
	base := fmt.Sprintf("Loaded %d articles", articles)
	if errors > 0 {
		base += fmt.Sprintf(" • %d errors", errors)
	}
	if docCount >= 0 {
		base += fmt.Sprintf(" • idx: %d docs", docCount)
	}
	return base
}
