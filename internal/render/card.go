package render

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/pders01/rss-reader/internal/api"
)

// UnreadMarker prefixes the title of unread articles.
const UnreadMarker = "●"

const metaSeparator = " · "

// Card is the compact form of an article used in lists.
type Card struct {
	ID       int64
	Title    string
	FeedName string
	Author   string
	When     string
	Summary  string
	Link     string
	Unread   bool
}

// NewCard builds a card for a relative to now. maxSummary limits the
// plain-text summary length; zero or less drops the summary.
func NewCard(a api.Article, now time.Time, maxSummary int) Card {
	title := PlainText(a.Title)
	if title == "" {
		title = "(untitled)"
	}
	return Card{
		ID:       a.ID,
		Title:    title,
		FeedName: a.Feed.Name,
		Author:   a.Author,
		When:     RelativeTime(a.PublishedDate.Time, now),
		Summary:  Truncate(PlainText(a.Description), maxSummary),
		Link:     a.Link,
		Unread:   !a.IsRead,
	}
}

// RelativeTime renders t as "3 hours ago". The zero time renders as "".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// Heading is the title line, marked when unread.
func (c Card) Heading() string {
	if c.Unread {
		return UnreadMarker + " " + c.Title
	}
	return c.Title
}

// Meta joins feed name, author and date, skipping empty parts.
func (c Card) Meta() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.FeedName, c.Author, c.When} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, metaSeparator)
}

// CardStyles colours the parts of a rendered card.
type CardStyles struct {
	Title   lipgloss.Style
	Unread  lipgloss.Style
	Meta    lipgloss.Style
	Summary lipgloss.Style
}

// PlainCardStyles applies no colour. Used when output is not a terminal.
func PlainCardStyles() CardStyles {
	s := lipgloss.NewStyle()
	return CardStyles{Title: s, Unread: s, Meta: s, Summary: s}
}

// Render lays the card out as up to three lines within width columns.
func (c Card) Render(st CardStyles, width int) string {
	if width <= 0 {
		width = 80
	}

	titleStyle := st.Title
	if c.Unread {
		titleStyle = st.Unread
	}
	lines := []string{titleStyle.Render(Truncate(c.Heading(), width))}
	if meta := c.Meta(); meta != "" {
		lines = append(lines, st.Meta.Render(Truncate(meta, width)))
	}
	if c.Summary != "" {
		lines = append(lines, st.Summary.Render(Truncate(c.Summary, width)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
