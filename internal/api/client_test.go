package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/rss-reader/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   string
	CType  string
}

type fakeBackend struct {
	t        *testing.T
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]http.HandlerFunc
}

func newFakeBackend(t *testing.T) (*fakeBackend, *Client) {
	t.Helper()
	fb := &fakeBackend{t: t, routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)

	cfg := config.TestConfig().API
	cfg.BaseURL = srv.URL
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return fb, client
}

func (fb *fakeBackend) handle(method, path string, h http.HandlerFunc) {
	fb.routes[method+" "+path] = h
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	fb.mu.Lock()
	fb.requests = append(fb.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Body:   string(body),
		CType:  r.Header.Get("Content-Type"),
	})
	fb.mu.Unlock()

	h, ok := fb.routes[r.Method+" "+r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (fb *fakeBackend) last() recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.NotEmpty(fb.t, fb.requests)
	return fb.requests[len(fb.requests)-1]
}

func writeJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

const envelopeBody = `{
  "articles": [
    {
      "id": 7,
      "title": "Show HN: a tiny database",
      "link": "https://news.ycombinator.com/item?id=123",
      "description": "<p>hello</p>",
      "author": null,
      "published_date": "2024-01-15T10:00:00",
      "is_read": false,
      "feed_name": "Hacker News",
      "feed_category": "Technology",
      "feed_logo_url": "https://news.ycombinator.com/favicon.ico"
    }
  ],
  "total": 1,
  "pages": 1,
  "current_page": 1
}`

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "localhost:5001"} {
		cfg := config.TestConfig().API
		cfg.BaseURL = raw
		_, err := NewClient(cfg)
		assert.Error(t, err, raw)
	}
}

func TestNewClientTrimsTrailingSlash(t *testing.T) {
	cfg := config.TestConfig().API
	cfg.BaseURL = "http://localhost:5001/"
	c, err := NewClient(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5001", c.BaseURL())
}

func TestArticlesEnvelopeWithFlatFeedFields(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodGet, "/api/articles", writeJSON(envelopeBody))

	articles, err := client.Articles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)

	a := articles[0]
	assert.Equal(t, int64(7), a.ID)
	assert.Equal(t, "Hacker News", a.Feed.Name)
	assert.Equal(t, "Technology", a.Feed.Category)
	assert.Equal(t, "https://news.ycombinator.com/favicon.ico", a.Feed.LogoURL)
	assert.False(t, a.HasAuthor())
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), a.PublishedDate.Time)

	req := fb.last()
	assert.Equal(t, "per_page=100", req.Query)
}

func TestArticlesBareArrayWithNestedFeed(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodGet, "/api/articles", writeJSON(`[
	  {"id": 1, "title": "A", "link": "https://a.example", "description": "d",
	   "author": "  Ada  ", "published_date": "2024-03-01T08:30:00Z",
	   "feed": {"name": "Example"}, "is_read": true}
	]`))

	articles, err := client.Articles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Example", articles[0].Feed.Name)
	assert.Equal(t, "Ada", articles[0].Author)
	assert.True(t, articles[0].IsRead)
}

func TestArticlesMalformed(t *testing.T) {
	tests := map[string]string{
		"empty":            ``,
		"scalar":           `"nope"`,
		"missing articles": `{"total": 3}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			fb, client := newFakeBackend(t)
			fb.handle(http.MethodGet, "/api/articles", writeJSON(body))

			_, err := client.Articles(context.Background())
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestArticlesKeepsArticleWithUnparseableDate(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodGet, "/api/articles", writeJSON(`[
	  {"id": 1, "title": "Dated", "published_date": "2024-01-15T10:00:00"},
	  {"id": 2, "title": "Undated", "published_date": "sometime yesterday"},
	  {"id": 3, "title": "Also dated", "published_date": "2024-01-14T10:00:00"}
	]`))

	articles, err := client.Articles(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.False(t, articles[0].PublishedDate.IsZero())
	assert.Equal(t, "Undated", articles[1].Title)
	assert.True(t, articles[1].PublishedDate.IsZero())
	assert.False(t, articles[2].PublishedDate.IsZero())
}

func TestArticlesFollowsPages(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodGet, "/api/articles", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "", "1":
			_, _ = io.WriteString(w, `{"articles": [{"id": 4}, {"id": 3}], "total": 5, "pages": 3, "current_page": 1}`)
		case "2":
			// id 3 slid onto this page after a new article arrived.
			_, _ = io.WriteString(w, `{"articles": [{"id": 3}, {"id": 2}], "total": 5, "pages": 3, "current_page": 2}`)
		case "3":
			_, _ = io.WriteString(w, `{"articles": [{"id": 1}], "total": 5, "pages": 3, "current_page": 3}`)
		default:
			http.NotFound(w, r)
		}
	})

	articles, err := client.Articles(context.Background())
	require.NoError(t, err)

	var ids []int64
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []int64{4, 3, 2, 1}, ids)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	require.Len(t, fb.requests, 3)
	var queries []string
	for _, r := range fb.requests {
		queries = append(queries, r.Query)
	}
	assert.ElementsMatch(t, []string{"per_page=100", "page=2&per_page=100", "page=3&per_page=100"}, queries)
}

func TestArticlesFailsWhenALaterPageFails(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodGet, "/api/articles", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			http.Error(w, `{"error": "boom"}`, http.StatusInternalServerError)
			return
		}
		_, _ = io.WriteString(w, `{"articles": [{"id": 2}], "total": 2, "pages": 2, "current_page": 1}`)
	})

	_, err := client.Articles(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, err.Error(), "articles page 2")
}

func TestFetchReturnsArticlesAndStats(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodGet, "/api/articles", writeJSON(envelopeBody))
	fb.handle(http.MethodGet, "/api/stats", writeJSON(
		`{"total_feeds": 5, "total_articles": 100, "unread_articles": 25, "read_articles": 75}`))

	articles, stats, err := client.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, articles, 1)
	assert.Equal(t, Stats{TotalFeeds: 5, TotalArticles: 100, UnreadArticles: 25, ReadArticles: 75}, stats)
	assert.NoError(t, stats.Validate())
}

func TestFetchFailsWhenEitherCallFails(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodGet, "/api/articles", writeJSON(envelopeBody))
	fb.handle(http.MethodGet, "/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "database locked"}`, http.StatusInternalServerError)
	})

	_, _, err := client.Fetch(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "database locked", se.Message)
	assert.Contains(t, se.Error(), "/api/stats")
}

func TestMarkRead(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodPut, "/api/articles/42/read", writeJSON(`{"message": "Article marked as read"}`))

	require.NoError(t, client.MarkRead(context.Background(), 42))

	req := fb.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/articles/42/read", req.Path)
	assert.Equal(t, "application/json", req.CType)
}

func TestMarkUnread(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodPut, "/api/articles/42/unread", writeJSON(`{"message": "Article marked as unread"}`))

	require.NoError(t, client.MarkUnread(context.Background(), 42))

	req := fb.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/api/articles/42/unread", req.Path)
}

func TestMarkReadNotFound(t *testing.T) {
	_, client := newFakeBackend(t)

	err := client.MarkRead(context.Background(), 9)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Code)
}

func TestAddFeedDefaultsCategory(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodPost, "/api/feeds", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 3, "name": "Go Blog", "url": "https://go.dev/blog/feed.atom", "category": "Technology"}`)
	})

	feed, err := client.AddFeed(context.Background(), NewFeed{Name: "Go Blog", URL: "https://go.dev/blog/feed.atom"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), feed.ID)

	var sent NewFeed
	require.NoError(t, json.Unmarshal([]byte(fb.last().Body), &sent))
	assert.Equal(t, config.DefaultCategory, sent.Category)
}

func TestAddFeedRejected(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodPost, "/api/feeds", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": "Invalid RSS feed URL or no entries found"}`)
	})

	_, err := client.AddFeed(context.Background(), NewFeed{URL: "https://example.com"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Invalid RSS feed URL or no entries found", se.Message)
}

func TestFeedsCategoriesAndDelete(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodGet, "/api/feeds", writeJSON(`[
	  {"id": 1, "name": "Go Blog", "url": "https://go.dev/blog/feed.atom", "category": "Technology",
	   "last_fetched": null, "article_count": 12}
	]`))
	fb.handle(http.MethodGet, "/api/categories", writeJSON(`["News", "Technology"]`))
	fb.handle(http.MethodDelete, "/api/feeds/1", writeJSON(`{"message": "Feed deleted"}`))

	feeds, err := client.Feeds(context.Background())
	require.NoError(t, err)
	require.Len(t, feeds, 1)
	assert.Equal(t, 12, feeds[0].ArticleCount)
	assert.True(t, feeds[0].LastFetched.IsZero())

	categories, err := client.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"News", "Technology"}, categories)

	require.NoError(t, client.DeleteFeed(context.Background(), 1))
	assert.Equal(t, "/api/feeds/1", fb.last().Path)
}

func TestRequestHonoursContext(t *testing.T) {
	fb, client := newFakeBackend(t)
	fb.handle(http.MethodGet, "/api/stats", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Stats(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
