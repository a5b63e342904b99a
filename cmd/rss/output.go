package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/bookmarks"
	"github.com/pders01/rss-reader/internal/render"
	"github.com/pders01/rss-reader/internal/tui"
)

const cardWidth = 80

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printCards(w io.Writer, arts []api.Article, now time.Time, maxSummary int) {
	st := render.PlainCardStyles()
	for _, a := range arts {
		c := render.NewCard(a, now, maxSummary)
		fmt.Fprintf(w, "[%d] %s\n\n", c.ID, c.Render(st, cardWidth))
	}
}

func printStats(w io.Writer, st api.Stats) {
	t := newTable("Feeds", "Articles", "Unread", "Read").
		Row(strconv.Itoa(st.TotalFeeds), strconv.Itoa(st.TotalArticles),
			strconv.Itoa(st.UnreadArticles), strconv.Itoa(st.ReadArticles))
	fmt.Fprintln(w, t.Render())
}

func printFeeds(w io.Writer, feeds []api.Feed) {
	if len(feeds) == 0 {
		fmt.Fprintln(w, "No feeds yet")
		return
	}
	t := newTable("ID", "Name", "Category", "URL", "Last fetched")
	now := time.Now()
	for _, f := range feeds {
		t.Row(
			strconv.FormatInt(f.ID, 10),
			render.Truncate(f.Name, 30),
			f.Category,
			render.TruncateMiddle(f.URL, 48),
			render.RelativeTime(f.LastFetched.Time, now),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func printBookmarks(w io.Writer, saved []bookmarks.Bookmark, maxSummary int) {
	if len(saved) == 0 {
		fmt.Fprintln(w, tui.MsgNoBookmarks)
		return
	}
	now := time.Now()
	t := newTable("ID", "Title", "Feed", "Saved")
	for _, b := range saved {
		c := render.NewCard(b.Article, now, maxSummary)
		t.Row(strconv.FormatInt(c.ID, 10), render.Truncate(c.Title, 50), c.FeedName, render.RelativeTime(b.SavedAt, now))
	}
	fmt.Fprintln(w, t.Render())
}
