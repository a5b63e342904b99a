package feed

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// ErrNoEntries is returned for documents that parse but carry no items.
var ErrNoEntries = errors.New("feed has no entries")

// Entry is a single item seen while probing.
type Entry struct {
	Title     string
	Link      string
	Published time.Time
}

// ProbeResult summarises a feed document.
type ProbeResult struct {
	URL         string
	Title       string
	Description string
	Link        string
	LogoURL     string
	Entries     []Entry
}

type Parser struct {
	parser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{parser: gofeed.NewParser()}
}

// Parse reads an RSS, Atom or JSON feed fetched from feedURL.
func (p *Parser) Parse(body []byte, feedURL string) (*ProbeResult, error) {
	parsed, err := p.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	if len(parsed.Items) == 0 {
		return nil, ErrNoEntries
	}

	result := &ProbeResult{
		URL:         feedURL,
		Title:       strings.TrimSpace(parsed.Title),
		Description: strings.TrimSpace(parsed.Description),
		Link:        parsed.Link,
		Entries:     make([]Entry, 0, len(parsed.Items)),
	}
	if parsed.Image != nil {
		result.LogoURL = parsed.Image.URL
	}
	if result.LogoURL == "" {
		result.LogoURL = faviconURL(parsed.Link, feedURL)
	}

	for _, item := range parsed.Items {
		entry := Entry{Title: strings.TrimSpace(item.Title), Link: item.Link}
		switch {
		case item.PublishedParsed != nil:
			entry.Published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			entry.Published = *item.UpdatedParsed
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

// faviconURL guesses /favicon.ico on the site the feed belongs to.
func faviconURL(candidates ...string) string {
	for _, raw := range candidates {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		return u.Scheme + "://" + u.Host + "/favicon.ico"
	}
	return ""
}
