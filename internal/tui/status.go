package tui

import (
	"fmt"
	"strings"
)

// StatusKind indicates severity for status messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading articles…"
	MsgRefreshing     = "Refreshing…"
	MsgAddingFeed     = "Adding feed…"
	MsgDeleting       = "Deleting…"
	MsgLoadingArticle = "Loading article…"
	MsgNoArticles     = "No articles found"
	MsgNoBookmarks    = "No bookmarks yet"
	MsgFeedDeleted    = "Feed deleted"
	MsgNotHackerNews  = "Not a Hacker News article"
)

func MsgAddedFeed(name string) string {
	return fmt.Sprintf("Added feed '%s'", strings.TrimSpace(name))
}

func MsgBookmarked(title string, on bool) string {
	if on {
		return fmt.Sprintf("Bookmarked '%s'", title)
	}
	return fmt.Sprintf("Removed bookmark '%s'", title)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgPage is the pagination indicator, e.g. "page 2/3 • 25 articles".
func MsgPage(page, pages, matches int) string {
	noun := "articles"
	if matches == 1 {
		noun = "article"
	}
	return fmt.Sprintf("page %d/%d • %d %s", page, pages, matches, noun)
}

type status struct {
	text string
	kind StatusKind
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = status{text: text, kind: kind}
}

func (a *App) clearStatus() {
	a.status = status{}
}
