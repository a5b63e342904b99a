package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/rss-reader/internal/config"
	"github.com/pders01/rss-reader/internal/debuglog"
)

const (
	defaultTimeout = 10 * time.Second
	// maxBodySize caps how much of a response is read.
	maxBodySize = 16 << 20
	// maxArticlePages bounds how many pages one Articles call follows.
	maxArticlePages = 50
	pageFetchers    = 4
)

// ErrMalformed marks a response the client could not make sense of.
var ErrMalformed = errors.New("malformed response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method  string
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Code)
}

// Client talks to the rss-reader REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	fetchLimit int
}

func NewClient(cfg config.APIConfig) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must use http or https", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		fetchLimit: cfg.FetchLimit,
	}, nil
}

// BaseURL returns the API root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Fetch loads the article list and the stats concurrently.
func (c *Client) Fetch(ctx context.Context) ([]Article, Stats, error) {
	var (
		articles []Article
		stats    Stats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		articles, err = c.Articles(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = c.Stats(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}
	return articles, stats, nil
}

// Articles returns every article the server has, newest first. Pages
// after the first are requested concurrently and joined in page order.
func (c *Client) Articles(ctx context.Context) ([]Article, error) {
	first, err := c.articlePage(ctx, 1)
	if err != nil {
		return nil, err
	}

	pages := first.Pages
	if pages > maxArticlePages {
		debuglog.Warnf("server reports %d article pages, reading the first %d", pages, maxArticlePages)
		pages = maxArticlePages
	}
	if pages <= 1 {
		return first.Articles, nil
	}

	rest := make([][]Article, pages-1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(pageFetchers)
	for page := 2; page <= pages; page++ {
		g.Go(func() error {
			env, err := c.articlePage(gctx, page)
			if err != nil {
				return fmt.Errorf("articles page %d: %w", page, err)
			}
			rest[page-2] = env.Articles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Articles arriving between page requests shift later pages, so an
	// article can show up twice.
	size := max(first.Total, len(first.Articles)*pages)
	seen := make(map[int64]bool, size)
	articles := make([]Article, 0, size)
	for _, batch := range append([][]Article{first.Articles}, rest...) {
		for _, a := range batch {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			articles = append(articles, a)
		}
	}
	if len(articles) < first.Total {
		debuglog.Warnf("loaded %d of %d articles", len(articles), first.Total)
	}
	return articles, nil
}

func (c *Client) articlePage(ctx context.Context, page int) (articlesEnvelope, error) {
	query := url.Values{}
	if page > 1 {
		query.Set("page", strconv.Itoa(page))
	}
	if c.fetchLimit > 0 {
		query.Set("per_page", strconv.Itoa(c.fetchLimit))
	}

	body, err := c.do(ctx, http.MethodGet, "/api/articles", query, nil)
	if err != nil {
		return articlesEnvelope{}, err
	}
	return decodeArticles(body)
}

func (c *Client) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/stats", nil, &stats); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

// MarkRead records the article as read on the server. The call is
// idempotent and the response body is ignored.
func (c *Client) MarkRead(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/articles/%d/read", id), nil, nil)
	return err
}

// MarkUnread clears the read flag on the server.
func (c *Client) MarkUnread(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/articles/%d/unread", id), nil, nil)
	return err
}

func (c *Client) Feeds(ctx context.Context) ([]Feed, error) {
	var feeds []Feed
	if err := c.doJSON(ctx, http.MethodGet, "/api/feeds", nil, &feeds); err != nil {
		return nil, err
	}
	return feeds, nil
}

func (c *Client) AddFeed(ctx context.Context, in NewFeed) (Feed, error) {
	if in.Category == "" {
		in.Category = config.DefaultCategory
	}
	var feed Feed
	if err := c.doJSON(ctx, http.MethodPost, "/api/feeds", in, &feed); err != nil {
		return Feed{}, err
	}
	return feed, nil
}

func (c *Client) DeleteFeed(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/feeds/%d", id), nil, nil)
	return err
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.doJSON(ctx, http.MethodGet, "/api/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := c.do(ctx, method, path, nil, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformed, method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	endpoint := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		endpoint.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log := debuglog.WithFields(debuglog.Fields{"method": method, "path": path})
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warnf("request failed: %v", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	log.Debugf("HTTP %d in %s (%d bytes)", resp.StatusCode, time.Since(start).Round(time.Millisecond), len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:  method,
			Path:    path,
			Code:    resp.StatusCode,
			Message: errorMessage(body),
		}
	}

	return body, nil
}

// errorMessage pulls {"error": "..."} out of an error body when present.
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
