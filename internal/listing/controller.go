// Package listing owns the article list the user is looking at: what was
// loaded, which subset is visible, and which articles have been read.
package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/debuglog"
)

// Filter selects articles by read state.
type Filter int

const (
	FilterAll Filter = iota
	FilterUnread
)

func (f Filter) String() string {
	if f == FilterUnread {
		return "unread"
	}
	return "all"
}

// ParseFilter maps "all" and "unread" to a Filter.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "unread":
		return FilterUnread, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter %q (want all or unread)", s)
	}
}

// State is the lifecycle of a Controller.
type State int

const (
	StateLoading State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "loading"
}

// Source fetches the article list together with the stats.
type Source interface {
	Fetch(ctx context.Context) ([]api.Article, api.Stats, error)
}

// Persister writes read state back to the server.
type Persister interface {
	MarkRead(ctx context.Context, id int64) error
	MarkUnread(ctx context.Context, id int64) error
}

// Controller holds the loaded articles and the view state derived from
// them. Its methods are safe to call from a UI goroutine and from the
// goroutines that run its blocking calls.
type Controller struct {
	source    Source
	persister Persister

	mu           sync.Mutex
	state        State
	articles     []api.Article
	stats        api.Stats
	searchTerm   string
	filter       Filter
	feed         string
	category     string
	currentPage  int
	itemsPerPage int
	loadSeq      uint64
	// snapshot counts successful loads; a read-state revert only applies
	// to the snapshot it was flipped in.
	snapshot uint64
}

// New returns a controller in the Loading state. persister may be nil,
// in which case read state is only kept locally.
func New(source Source, persister Persister, itemsPerPage int) *Controller {
	if itemsPerPage < 1 {
		itemsPerPage = 10
	}
	return &Controller{
		source:       source,
		persister:    persister,
		state:        StateLoading,
		filter:       FilterAll,
		currentPage:  1,
		itemsPerPage: itemsPerPage,
	}
}

// Load fetches articles and stats and replaces the working set. A failed
// fetch returns a *FetchError and leaves the state as it was. When a newer
// Load has started before this one finishes, this result is dropped.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	articles, stats, err := c.source.Fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.loadSeq {
		debuglog.Debugf("dropping stale load %d (latest %d)", seq, c.loadSeq)
		return nil
	}
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return err
		}
		return &FetchError{Op: "fetch articles", Err: err}
	}
	if err := stats.Validate(); err != nil {
		return &FetchError{Op: "validate stats", Err: err}
	}

	c.articles = append([]api.Article(nil), articles...)
	c.stats = stats
	c.snapshot++
	if c.state == StateLoading {
		debuglog.Infof("loaded %d articles", len(articles))
	}
	c.state = StateReady
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading reports whether the first load has not succeeded yet.
func (c *Controller) Loading() bool {
	return c.State() == StateLoading
}

func (c *Controller) Stats() api.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// SetSearchTerm changes the search term and goes back to page 1.
func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchTerm = term
	c.currentPage = 1
}

func (c *Controller) SearchTerm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchTerm
}

// SetFilter changes the read filter and goes back to page 1.
func (c *Controller) SetFilter(f Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
	c.currentPage = 1
}

func (c *Controller) Filter() Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// SelectFeed narrows the list to one feed by display name and goes back
// to page 1. An empty name selects every feed.
func (c *Controller) SelectFeed(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feed = name
	c.currentPage = 1
}

func (c *Controller) SelectedFeed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feed
}

// SelectCategory narrows the list to feeds of one category and goes back
// to page 1. Matching ignores case. An empty name selects every category.
func (c *Controller) SelectCategory(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.category = strings.TrimSpace(name)
	c.currentPage = 1
}

func (c *Controller) SelectedCategory() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// SetPage moves to page n. Pages below 1 clamp to 1; pages past the end
// are allowed and show nothing.
func (c *Controller) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentPage = n
}

func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

func (c *Controller) ItemsPerPage() int {
	return c.itemsPerPage
}

// PageCount is the number of pages of the filtered set, at least 1.
func (c *Controller) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageCountLocked(len(c.filteredLocked()))
}

func (c *Controller) pageCountLocked(n int) int {
	pages := (n + c.itemsPerPage - 1) / c.itemsPerPage
	if pages < 1 {
		return 1
	}
	return pages
}

// NextPage advances one page unless already on the last one.
func (c *Controller) NextPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentPage >= c.pageCountLocked(len(c.filteredLocked())) {
		return false
	}
	c.currentPage++
	return true
}

// PrevPage goes back one page unless already on the first one.
func (c *Controller) PrevPage() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentPage <= 1 {
		return false
	}
	c.currentPage--
	return true
}

// VisibleArticles returns the current page of articles that pass the
// read filter, the feed and category selection and the search term, in
// load order.
func (c *Controller) VisibleArticles() []api.Article {
	c.mu.Lock()
	defer c.mu.Unlock()

	filtered := c.filteredLocked()
	start := (c.currentPage - 1) * c.itemsPerPage
	if start >= len(filtered) {
		return []api.Article{}
	}
	end := start + c.itemsPerPage
	if end > len(filtered) {
		end = len(filtered)
	}
	return append([]api.Article(nil), filtered[start:end]...)
}

// MatchCount is the size of the filtered set across all pages.
func (c *Controller) MatchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.filteredLocked())
}

func (c *Controller) filteredLocked() []api.Article {
	term := strings.ToLower(c.searchTerm)
	out := make([]api.Article, 0, len(c.articles))
	for _, a := range c.articles {
		if c.filter == FilterUnread && a.IsRead {
			continue
		}
		if c.feed != "" && a.Feed.Name != c.feed {
			continue
		}
		if c.category != "" && !strings.EqualFold(a.Feed.Category, c.category) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(a.Title), term) &&
			!strings.Contains(strings.ToLower(a.Description), term) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Article returns the loaded article with the given id.
func (c *Controller) Article(id int64) (api.Article, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.articles[i], true
	}
	return api.Article{}, false
}

// FeedNames lists the distinct feed names in the order they first appear.
func (c *Controller) FeedNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]bool)
	var names []string
	for _, a := range c.articles {
		if a.Feed.Name == "" || seen[a.Feed.Name] {
			continue
		}
		seen[a.Feed.Name] = true
		names = append(names, a.Feed.Name)
	}
	return names
}

func (c *Controller) indexLocked(id int64) int {
	for i := range c.articles {
		if c.articles[i].ID == id {
			return i
		}
	}
	return -1
}

// MarkAsRead flags the article as read and writes it back. The local flag
// flips before the server call; if the call fails the flag is reverted
// and a *PersistError is returned. Marking a read article does nothing.
func (c *Controller) MarkAsRead(ctx context.Context, id int64) error {
	return c.setRead(ctx, id, true)
}

// MarkAsUnread is the inverse of MarkAsRead, with the same write-back and
// revert rules.
func (c *Controller) MarkAsUnread(ctx context.Context, id int64) error {
	return c.setRead(ctx, id, false)
}

func (c *Controller) setRead(ctx context.Context, id int64, read bool) error {
	delta := 1
	if !read {
		delta = -1
	}

	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrUnknownArticle, id)
	}
	if c.articles[i].IsRead == read {
		c.mu.Unlock()
		return nil
	}
	c.articles[i].IsRead = read
	c.stats = shiftRead(c.stats, delta)
	snapshot := c.snapshot
	c.mu.Unlock()

	if c.persister == nil {
		return nil
	}

	persist := c.persister.MarkRead
	if !read {
		persist = c.persister.MarkUnread
	}
	if err := persist(ctx, id); err != nil {
		c.mu.Lock()
		if c.snapshot == snapshot {
			if i := c.indexLocked(id); i >= 0 && c.articles[i].IsRead == read {
				c.articles[i].IsRead = !read
				c.stats = shiftRead(c.stats, -delta)
			}
		}
		c.mu.Unlock()
		debuglog.WithFields(debuglog.Fields{"article": id, "read": read}).Warnf("write-back failed: %v", err)
		return &PersistError{ArticleID: id, Read: read, Err: err}
	}
	return nil
}

// shiftRead moves n articles from unread to read, keeping the totals
// consistent. Counters never go below zero.
func shiftRead(s api.Stats, n int) api.Stats {
	if n > 0 && s.UnreadArticles < n {
		return s
	}
	if n < 0 && s.ReadArticles < -n {
		return s
	}
	s.UnreadArticles -= n
	s.ReadArticles += n
	return s
}
