package render

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/hn"
)

// ArticleMarkdown builds the reader document for a: title, byline, body,
// the original link and, for Hacker News items, the discussion link.
func ArticleMarkdown(a api.Article, now time.Time) string {
	card := NewCard(a, now, 0)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", card.Title)
	if meta := card.Meta(); meta != "" {
		fmt.Fprintf(&b, "*%s*\n\n", meta)
	}
	if body := ToMarkdown(a.Description); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	b.WriteString("---\n\n")
	if a.Link != "" {
		fmt.Fprintf(&b, "Original: <%s>\n\n", a.Link)
	}
	if hn.IsHackerNewsArticle(a.Feed.Name, a.Link) {
		fmt.Fprintf(&b, "Discussion: <%s>\n", hn.BestDiscussionURL(card.Title, a.Link))
	}
	return b.String()
}

// MarkdownRenderer renders markdown for the terminal, reusing the glamour
// renderer until the wrap width changes noticeably.
type MarkdownRenderer struct {
	style    string
	minWidth int
	maxWidth int

	mu       sync.Mutex
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownRenderer returns a renderer using the named glamour style, or
// the terminal's auto style when style is empty.
func NewMarkdownRenderer(style string, minWidth, maxWidth int) *MarkdownRenderer {
	if minWidth <= 0 {
		minWidth = 40
	}
	if maxWidth < minWidth {
		maxWidth = minWidth
	}
	return &MarkdownRenderer{style: style, minWidth: minWidth, maxWidth: maxWidth}
}

// WrapWidth picks a wrap width for a terminal of the given width.
func (r *MarkdownRenderer) WrapWidth(termWidth int) int {
	w := termWidth * 9 / 10
	if w > r.maxWidth {
		w = r.maxWidth
	}
	if w < r.minWidth {
		w = r.minWidth
	}
	if termWidth > 0 && termWidth < 50 {
		w = max(termWidth-4, 20)
	}
	return w
}

func (r *MarkdownRenderer) Render(md string, termWidth int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	width := r.WrapWidth(termWidth)
	if r.renderer == nil || abs(r.width-width) > 10 {
		styleOpt := glamour.WithAutoStyle()
		if r.style != "" {
			styleOpt = glamour.WithStandardStyle(r.style)
		}
		tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
		if err != nil {
			return "", fmt.Errorf("creating markdown renderer: %w", err)
		}
		r.renderer = tr
		r.width = width
	}

	out, err := r.renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
