package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/pders01/rss-reader/internal/debuglog"
)

// Timestamp is a point in time as the API writes it. The backend emits
// ISO-8601 with or without a zone; zoneless values are taken as UTC.
// A null, empty or unparseable value is the zero time.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		debuglog.Warnf("ignoring unparseable timestamp %q: %v", raw, err)
		t.Time = time.Time{}
		return nil
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// FeedRef is the source feed of an article as embedded in article payloads.
type FeedRef struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	LogoURL  string `json:"logo_url,omitempty"`
}

type Article struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Link          string    `json:"link"`
	Description   string    `json:"description"`
	Author        string    `json:"author,omitempty"`
	PublishedDate Timestamp `json:"published_date"`
	Feed          FeedRef   `json:"feed"`
	IsRead        bool      `json:"is_read"`
}

// UnmarshalJSON accepts both the nested "feed" object and the flat
// feed_name/feed_category/feed_logo_url fields the backend emits.
func (a *Article) UnmarshalJSON(data []byte) error {
	type plain Article
	var wire struct {
		plain
		Author       *string `json:"author"`
		FeedName     string  `json:"feed_name"`
		FeedCategory string  `json:"feed_category"`
		FeedLogoURL  string  `json:"feed_logo_url"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*a = Article(wire.plain)
	if wire.Author != nil {
		a.Author = strings.TrimSpace(*wire.Author)
	}
	if a.Feed.Name == "" {
		a.Feed.Name = wire.FeedName
	}
	if a.Feed.Category == "" {
		a.Feed.Category = wire.FeedCategory
	}
	if a.Feed.LogoURL == "" {
		a.Feed.LogoURL = wire.FeedLogoURL
	}
	return nil
}

// HasAuthor reports whether the article carries a displayable author.
func (a Article) HasAuthor() bool {
	return a.Author != ""
}

// Stats are the aggregate counters shown next to the article list.
type Stats struct {
	TotalFeeds     int `json:"total_feeds"`
	TotalArticles  int `json:"total_articles"`
	UnreadArticles int `json:"unread_articles"`
	ReadArticles   int `json:"read_articles"`
}

// Validate checks that counters are non-negative and that read and
// unread add up to the total.
func (s Stats) Validate() error {
	if s.TotalFeeds < 0 || s.TotalArticles < 0 || s.UnreadArticles < 0 || s.ReadArticles < 0 {
		return fmt.Errorf("%w: negative counter in %+v", ErrMalformed, s)
	}
	if s.ReadArticles+s.UnreadArticles != s.TotalArticles {
		return fmt.Errorf("%w: read (%d) + unread (%d) != total (%d)",
			ErrMalformed, s.ReadArticles, s.UnreadArticles, s.TotalArticles)
	}
	return nil
}

type Feed struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	URL          string    `json:"url"`
	Category     string    `json:"category,omitempty"`
	LogoURL      string    `json:"logo_url,omitempty"`
	LastFetched  Timestamp `json:"last_fetched"`
	ArticleCount int       `json:"article_count,omitempty"`
}

// NewFeed is the body of POST /api/feeds.
type NewFeed struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// articlesEnvelope is the paginated shape of GET /api/articles.
type articlesEnvelope struct {
	Articles    []Article `json:"articles"`
	Total       int       `json:"total"`
	Pages       int       `json:"pages"`
	CurrentPage int       `json:"current_page"`
}

// decodeArticles reads either a bare JSON array or the paginated envelope.
// A bare array is a single page.
func decodeArticles(body []byte) (articlesEnvelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return articlesEnvelope{}, fmt.Errorf("%w: empty articles body", ErrMalformed)
	}

	switch trimmed[0] {
	case '[':
		var articles []Article
		if err := json.Unmarshal(trimmed, &articles); err != nil {
			return articlesEnvelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return articlesEnvelope{Articles: articles, Total: len(articles), Pages: 1, CurrentPage: 1}, nil
	case '{':
		var env articlesEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return articlesEnvelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if env.Articles == nil {
			return articlesEnvelope{}, fmt.Errorf("%w: missing articles field", ErrMalformed)
		}
		return env, nil
	default:
		return articlesEnvelope{}, fmt.Errorf("%w: unexpected articles payload", ErrMalformed)
	}
}
