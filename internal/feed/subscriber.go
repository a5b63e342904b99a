// Package feed checks feed URLs before they are handed to the API. A URL
// is validated, fetched and parsed so that typos and empty feeds are
// caught locally with a useful message.
package feed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/config"
	"github.com/pders01/rss-reader/internal/debuglog"
	"github.com/pders01/rss-reader/internal/validation"
)

// FeedAdder creates a feed on the server.
type FeedAdder interface {
	AddFeed(ctx context.Context, in api.NewFeed) (api.Feed, error)
}

// Subscriber validates, probes and then registers new feeds.
type Subscriber struct {
	adder           FeedAdder
	fetcher         *Fetcher
	parser          *Parser
	urlValidator    *validation.FeedURLValidator
	defaultCategory string
}

func NewSubscriber(adder FeedAdder, cfg config.FeedConfig) *Subscriber {
	s := &Subscriber{
		adder:           adder,
		fetcher:         NewFetcher(cfg),
		parser:          NewParser(),
		defaultCategory: cfg.DefaultCategory,
	}
	s.SetPermissiveValidation(cfg.AllowPrivateHosts)
	if s.defaultCategory == "" {
		s.defaultCategory = config.DefaultCategory
	}
	return s
}

// SetPermissiveValidation allows localhost and private network feeds.
func (s *Subscriber) SetPermissiveValidation(permissive bool) {
	if permissive {
		s.urlValidator = validation.NewPermissiveFeedURLValidator()
	} else {
		s.urlValidator = validation.NewFeedURLValidator()
	}
}

// Probe validates rawURL and parses the document behind it.
func (s *Subscriber) Probe(ctx context.Context, rawURL string) (*ProbeResult, error) {
	normalized, err := s.urlValidator.ValidateAndNormalize(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}

	body, err := s.fetcher.Fetch(ctx, normalized)
	if err != nil {
		return nil, err
	}

	result, err := s.parser.Parse(body, normalized)
	if err != nil {
		return nil, err
	}
	debuglog.WithFields(debuglog.Fields{"url": normalized, "entries": len(result.Entries)}).
		Debugf("probed feed %q", result.Title)
	return result, nil
}

// Request is what the user typed into the add-feed form.
type Request struct {
	Name     string
	URL      string
	Category string
}

// Subscribe probes req.URL and, when it is a non-empty feed, creates it on
// the server. An empty name falls back to the feed's own title.
func (s *Subscriber) Subscribe(ctx context.Context, req Request) (api.Feed, error) {
	probe, err := s.Probe(ctx, req.URL)
	if err != nil {
		if errors.Is(err, ErrNoEntries) {
			return api.Feed{}, fmt.Errorf("invalid RSS feed or no entries found: %w", err)
		}
		return api.Feed{}, err
	}

	in := api.NewFeed{
		Name:     strings.TrimSpace(req.Name),
		URL:      probe.URL,
		Category: strings.TrimSpace(req.Category),
	}
	if in.Name == "" {
		in.Name = probe.Title
	}
	if in.Name == "" {
		in.Name = probe.URL
	}
	if in.Category == "" {
		in.Category = s.defaultCategory
	}

	feed, err := s.adder.AddFeed(ctx, in)
	if err != nil {
		return api.Feed{}, fmt.Errorf("adding feed: %w", err)
	}
	debuglog.Infof("subscribed to %s as %q", in.URL, in.Name)
	return feed, nil
}
