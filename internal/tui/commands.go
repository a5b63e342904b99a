package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/bookmarks"
	"github.com/pders01/rss-reader/internal/debuglog"
	"github.com/pders01/rss-reader/internal/feed"
	"github.com/pders01/rss-reader/internal/hn"
	"github.com/pders01/rss-reader/internal/render"
)

var (
	errNoFeedService = errors.New("feed management is not available")
	errNoBookmarks   = errors.New("bookmarks are not available")
	errNoOpener      = errors.New("no browser opener configured")
)

func (a *App) withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = a.timeout
	}
	return context.WithTimeout(context.Background(), d)
}

func (a *App) loadArticles() tea.Cmd {
	c := a.svc.Listing
	return func() tea.Msg {
		ctx, cancel := a.withTimeout(0)
		defer cancel()
		return articlesLoadedMsg{err: c.Load(ctx)}
	}
}

func (a *App) markRead(id int64) tea.Cmd {
	c := a.svc.Listing
	return func() tea.Msg {
		ctx, cancel := a.withTimeout(0)
		defer cancel()
		return markedReadMsg{id: id, err: c.MarkAsRead(ctx, id)}
	}
}

// toggleRead flips the read state of art as the list currently knows it.
func (a *App) toggleRead(art api.Article) tea.Cmd {
	c := a.svc.Listing
	if cur, ok := c.Article(art.ID); ok {
		art = cur
	}
	return func() tea.Msg {
		ctx, cancel := a.withTimeout(0)
		defer cancel()
		if art.IsRead {
			return markedReadMsg{id: art.ID, err: c.MarkAsUnread(ctx, art.ID)}
		}
		return markedReadMsg{id: art.ID, err: c.MarkAsRead(ctx, art.ID)}
	}
}

func (a *App) renderArticle(art api.Article, width int) tea.Cmd {
	now := a.now()
	md := a.markdown
	return func() tea.Msg {
		out, err := md.Render(render.ArticleMarkdown(art, now), width)
		if err != nil {
			debuglog.WithFields(debuglog.Fields{"article": art.ID}).Errorf("render failed: %v", err)
			return articleRenderedMsg{content: fmt.Sprintf("Failed to render article: %v\n\nPress Esc to go back.", err)}
		}
		return articleRenderedMsg{content: out}
	}
}

func (a *App) loadFeeds() tea.Cmd {
	fs := a.svc.Feeds
	return func() tea.Msg {
		if fs == nil {
			return errorMsg{err: errNoFeedService}
		}
		ctx, cancel := a.withTimeout(0)
		defer cancel()
		feeds, err := fs.Feeds(ctx)
		if err != nil {
			return errorMsg{err: wrapErr("loading feeds", err)}
		}
		return feedsLoadedMsg{feeds: feeds}
	}
}

func (a *App) addFeed(req feed.Request) tea.Cmd {
	sub := a.svc.Subscriber
	d := a.config.Feed.ProbeTimeout + a.timeout
	return func() tea.Msg {
		if sub == nil {
			return feedAddedMsg{err: errNoFeedService}
		}
		ctx, cancel := a.withTimeout(d)
		defer cancel()
		f, err := sub.Subscribe(ctx, req)
		return feedAddedMsg{feed: f, err: err}
	}
}

func (a *App) deleteFeed(id int64) tea.Cmd {
	fs := a.svc.Feeds
	return func() tea.Msg {
		if fs == nil {
			return feedDeletedMsg{err: errNoFeedService}
		}
		ctx, cancel := a.withTimeout(0)
		defer cancel()
		return feedDeletedMsg{err: wrapErr("deleting feed", fs.DeleteFeed(ctx, id))}
	}
}

func (a *App) loadBookmarks(query string) tea.Cmd {
	bs := a.svc.Bookmarks
	return func() tea.Msg {
		if bs == nil {
			return bookmarksLoadedMsg{err: errNoBookmarks}
		}
		var (
			list []bookmarks.Bookmark
			err  error
		)
		if query == "" {
			list, err = bs.List()
		} else {
			list, err = bs.Search(query, bookmarkSearchLimit)
		}
		return bookmarksLoadedMsg{query: query, bookmarks: list, err: err}
	}
}

func (a *App) toggleBookmark(art api.Article) tea.Cmd {
	bs := a.svc.Bookmarks
	return func() tea.Msg {
		if bs == nil {
			return bookmarkToggledMsg{err: errNoBookmarks}
		}
		on, err := bs.Toggle(art)
		return bookmarkToggledMsg{title: render.Truncate(render.PlainText(art.Title), 40), on: on, err: err}
	}
}

func (a *App) openURL(rawURL string) tea.Cmd {
	op := a.svc.Opener
	return func() tea.Msg {
		if op == nil {
			return openedMsg{err: errNoOpener}
		}
		return openedMsg{err: op.Open(rawURL)}
	}
}

// openDiscussion opens the Hacker News thread for the article, or a
// search for its title when the link is not a comment page.
func (a *App) openDiscussion(art api.Article) tea.Cmd {
	if !isHN(art) {
		a.setStatus(MsgNotHackerNews, StatusWarn)
		return nil
	}
	if hn.IsCommentPage(art.Link) {
		return a.openURL(art.Link)
	}
	content := hn.ModalContent(art.Title, art.Link, art.Feed.Name)
	return a.openURL(content.DiscussionURL)
}

func isHN(art api.Article) bool {
	return hn.IsHackerNewsArticle(art.Feed.Name, art.Link)
}
