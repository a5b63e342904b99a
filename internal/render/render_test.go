package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/rss-reader/internal/api"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleArticle() api.Article {
	return api.Article{
		ID:            1,
		Title:         "Test Article",
		Link:          "https://example.org/a",
		Description:   "<p>Hello &amp; <b>world</b></p>",
		Author:        "Ada",
		PublishedDate: api.Timestamp{Time: now.Add(-3 * time.Hour)},
		Feed:          api.FeedRef{Name: "Test Feed"},
	}
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Hello & world", PlainText("<p>Hello &amp; <b>world</b></p>"))
	assert.Equal(t, "a b", PlainText("  a\n\n  b "))
	assert.Equal(t, "", PlainText("<script>alert(1)</script>"))
}

func TestToMarkdown(t *testing.T) {
	assert.Equal(t, "Hello **world**", ToMarkdown("<p>Hello <strong>world</strong></p>"))
	assert.Equal(t, "", ToMarkdown("   "))

	md := ToMarkdown(`<p>safe</p><script>alert(1)</script><a href="javascript:alert(1)">x</a>`)
	assert.Contains(t, md, "safe")
	assert.NotContains(t, md, "alert")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 6, "hello…"},
		{"héllo", 3, "hé…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.limit), "%q/%d", tt.in, tt.limit)
	}

	assert.Equal(t, "http…/feed", TruncateMiddle("http://example.org/feed", 10))
	assert.Equal(t, "short", TruncateMiddle("short", 10))
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "3 hours ago", RelativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2 days ago", RelativeTime(now.Add(-48*time.Hour), now))
	assert.Equal(t, "", RelativeTime(time.Time{}, now))
}

func TestNewCard(t *testing.T) {
	card := NewCard(sampleArticle(), now, 120)

	assert.Equal(t, "Test Article", card.Title)
	assert.Equal(t, "Test Feed", card.FeedName)
	assert.True(t, card.Unread)
	assert.Equal(t, UnreadMarker+" Test Article", card.Heading())
	assert.Equal(t, "Test Feed · Ada · 3 hours ago", card.Meta())
	assert.Equal(t, "Hello & world", card.Summary)
}

func TestCardHidesReadMarkerAndMissingAuthor(t *testing.T) {
	a := sampleArticle()
	a.IsRead = true
	a.Author = ""

	card := NewCard(a, now, 120)

	assert.False(t, card.Unread)
	assert.Equal(t, "Test Article", card.Heading())
	assert.Equal(t, "Test Feed · 3 hours ago", card.Meta())
	assert.NotContains(t, card.Render(PlainCardStyles(), 80), UnreadMarker)
}

func TestCardRender(t *testing.T) {
	out := NewCard(sampleArticle(), now, 120).Render(PlainCardStyles(), 80)
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "● Test Article")
	assert.Contains(t, lines[1], "3 hours ago")
	assert.Contains(t, lines[2], "Hello & world")
}

func TestArticleMarkdown(t *testing.T) {
	md := ArticleMarkdown(sampleArticle(), now)

	assert.Contains(t, md, "# Test Article")
	assert.Contains(t, md, "*Test Feed · Ada · 3 hours ago*")
	assert.Contains(t, md, "**world**")
	assert.Contains(t, md, "Original: <https://example.org/a>")
	assert.NotContains(t, md, "Discussion:")
}

func TestArticleMarkdownHackerNews(t *testing.T) {
	a := sampleArticle()
	a.Feed.Name = "Hacker News"
	a.Link = "https://news.ycombinator.com/item?id=42"

	md := ArticleMarkdown(a, now)

	assert.Contains(t, md, "Discussion: <https://news.ycombinator.com/item?id=42>")
}

func TestMarkdownRenderer(t *testing.T) {
	r := NewMarkdownRenderer("notty", 40, 120)

	assert.Equal(t, 45, r.WrapWidth(50))
	assert.Equal(t, 90, r.WrapWidth(100))
	assert.Equal(t, 120, r.WrapWidth(300))
	assert.Equal(t, 26, r.WrapWidth(30))

	out, err := r.Render("# Heading\n\nSome body text.", 100)
	require.NoError(t, err)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "Some body text.")
}
