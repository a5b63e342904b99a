package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/config"
	"github.com/pders01/rss-reader/internal/feed"
	"github.com/pders01/rss-reader/internal/listing"
)

const maxSearchLength = 256

type KeyHandler struct {
	app         *App
	config      *config.Config
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifier := cfg.Keys.Modifier
	if modifier == "" {
		modifier = "ctrl"
	}
	return &KeyHandler{app: app, config: cfg, modifierKey: modifier + "+"}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg.String()); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewHome:
		return kh.app.searchInput.Focused()
	case ViewBookmarks:
		return kh.app.bookmarkInput.Focused()
	case ViewAddFeed:
		return true
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		switch a.view {
		case ViewHome:
			a.searchInput.Reset()
			a.searchInput.Blur()
			a.svc.Listing.SetSearchTerm("")
			a.refreshArticles()
			return a, nil
		case ViewBookmarks:
			a.bookmarkInput.Reset()
			a.bookmarkInput.Blur()
			return a, a.loadBookmarks("")
		default:
			return kh.navigateBack()
		}
	case "enter":
		return kh.handleTextInputEnter()
	case "tab", "shift+tab", "down", "up":
		if a.view == ViewAddFeed {
			step := 1
			if k := msg.String(); k == "shift+tab" || k == "up" {
				step = len(a.feedInputs) - 1
			}
			return a, kh.focusFeedInput((a.focusedInput + step) % len(a.feedInputs))
		}
		if k := msg.String(); k == "tab" || k == "down" {
			a.searchInput.Blur()
			a.bookmarkInput.Blur()
			return a, nil
		}
	}
	return kh.delegateToTextInput(msg)
}

func (kh *KeyHandler) handleTextInputEnter() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewAddFeed:
		req := feed.Request{
			URL:      strings.TrimSpace(a.feedInputs[addFeedURL].Value()),
			Name:     strings.TrimSpace(a.feedInputs[addFeedName].Value()),
			Category: strings.TrimSpace(a.feedInputs[addFeedCategory].Value()),
		}
		if req.URL == "" {
			a.setStatus(errEmptyURL.Error(), StatusWarn)
			return a, nil
		}
		a.setStatus(MsgAddingFeed, StatusInfo)
		return a, a.addFeed(req)
	case ViewHome:
		a.searchInput.Blur()
		return a, nil
	case ViewBookmarks:
		a.bookmarkInput.Blur()
		return a, nil
	default:
		return a, nil
	}
}

// delegateToTextInput passes the key to the focused input and applies
// search changes as they are typed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	switch a.view {
	case ViewHome:
		prev := a.searchInput.Value()
		a.searchInput, cmd = a.searchInput.Update(msg)
		if a.searchInput.Value() != prev {
			a.svc.Listing.SetSearchTerm(sanitizeSearchInput(a.searchInput.Value()))
			a.articleList.Select(0)
			a.refreshArticles()
		}
		return a, cmd

	case ViewBookmarks:
		prev := a.bookmarkInput.Value()
		a.bookmarkInput, cmd = a.bookmarkInput.Update(msg)
		if q := a.bookmarkInput.Value(); q != prev {
			return a, tea.Batch(cmd, a.loadBookmarks(sanitizeSearchInput(q)))
		}
		return a, cmd

	case ViewAddFeed:
		i := a.focusedInput
		a.feedInputs[i], cmd = a.feedInputs[i].Update(msg)
		return a, cmd

	default:
		return a, nil
	}
}

func (kh *KeyHandler) focusFeedInput(i int) tea.Cmd {
	a := kh.app
	a.focusedInput = i
	var cmd tea.Cmd
	for j := range a.feedInputs {
		if j == i {
			cmd = a.feedInputs[j].Focus()
		} else {
			a.feedInputs[j].Blur()
		}
	}
	return cmd
}

// handleCustomKeys handles our own action keys. Anything else goes to the
// bubbles component of the current view.
func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", "q":
		return kh.app, tea.Quit, true
	case "esc":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}

	switch kh.app.view {
	case ViewHome:
		return kh.handleHomeKeys(key)
	case ViewReader:
		return kh.handleReaderKeys(key)
	case ViewFeeds:
		return kh.handleFeedsKeys(key)
	case ViewDeleteConfirm:
		return kh.handleDeleteConfirmKeys(key)
	case ViewBookmarks:
		return kh.handleBookmarksKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleHomeKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	c := a.svc.Listing
	mod := kh.modifierKey

	switch key {
	case mod + "r":
		a.setStatus(MsgRefreshing, StatusInfo)
		return a, tea.Batch(a.spinner.Tick, a.loadArticles()), true
	case mod + "f":
		return a, kh.enterFeeds(), true
	case mod + "k":
		return a, kh.enterBookmarks(), true
	}

	if c.Loading() {
		return a, nil, false
	}

	switch key {
	case "enter":
		art, ok := a.selectedArticle()
		if !ok {
			return a, nil, true
		}
		return a, kh.openReader(art, true), true
	case "/", mod + "s":
		a.clearStatus()
		return a, a.searchInput.Focus(), true
	case mod + "u":
		if c.Filter() == listing.FilterUnread {
			c.SetFilter(listing.FilterAll)
		} else {
			c.SetFilter(listing.FilterUnread)
		}
		a.articleList.Select(0)
		a.refreshArticles()
		return a, nil, true
	case mod + "n", "right", "l":
		if c.NextPage() {
			a.articleList.Select(0)
			a.refreshArticles()
		}
		return a, nil, true
	case mod + "p", "left", "h":
		if c.PrevPage() {
			a.articleList.Select(0)
			a.refreshArticles()
		}
		return a, nil, true
	case mod + "o":
		if art, ok := a.selectedArticle(); ok {
			return a, tea.Batch(a.openURL(art.Link), a.markRead(art.ID)), true
		}
		return a, nil, true
	case mod + "b":
		if art, ok := a.selectedArticle(); ok {
			return a, a.toggleBookmark(art), true
		}
		return a, nil, true
	case mod + "t":
		if art, ok := a.selectedArticle(); ok {
			return a, a.toggleRead(art), true
		}
		return a, nil, true
	case mod + "d":
		if art, ok := a.selectedArticle(); ok {
			return a, a.openDiscussion(art), true
		}
		return a, nil, true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleReaderKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	art := a.currentArticle
	if art == nil {
		return a, nil, false
	}
	switch key {
	case kh.modifierKey + "o":
		return a, a.openURL(art.Link), true
	case kh.modifierKey + "d":
		return a, a.openDiscussion(*art), true
	case kh.modifierKey + "b":
		return a, a.toggleBookmark(*art), true
	case kh.modifierKey + "t":
		return a, a.toggleRead(*art), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleFeedsKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case "enter":
		if i, ok := a.feedList.SelectedItem().(feedItem); ok {
			a.svc.Listing.SelectFeed(i.feed.Name)
			a.view = ViewHome
			a.articleList.Select(0)
			a.refreshArticles()
		}
		return a, nil, true
	case kh.modifierKey + "g":
		if i, ok := a.feedList.SelectedItem().(feedItem); ok {
			a.svc.Listing.SelectFeed("")
			a.svc.Listing.SelectCategory(i.feed.Category)
			a.view = ViewHome
			a.articleList.Select(0)
			a.refreshArticles()
		}
		return a, nil, true
	case kh.modifierKey + "n":
		a.view = ViewAddFeed
		for i := range a.feedInputs {
			a.feedInputs[i].Reset()
		}
		a.clearStatus()
		return a, kh.focusFeedInput(addFeedURL), true
	case kh.modifierKey + "x":
		if i, ok := a.feedList.SelectedItem().(feedItem); ok {
			f := i.feed
			a.feedToDelete = &f
			a.view = ViewDeleteConfirm
		}
		return a, nil, true
	case kh.modifierKey + "r":
		a.setStatus(MsgRefreshing, StatusInfo)
		return a, tea.Batch(a.loadFeeds(), a.loadArticles()), true
	case kh.modifierKey + "k":
		return a, kh.enterBookmarks(), true
	}
	return a, nil, false
}

func (kh *KeyHandler) handleDeleteConfirmKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	switch key {
	case "enter", "y":
		if a.feedToDelete == nil {
			a.view = ViewFeeds
			return a, nil, true
		}
		a.setStatus(MsgDeleting, StatusInfo)
		return a, a.deleteFeed(a.feedToDelete.ID), true
	case "n":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	}
	return a, nil, true
}

func (kh *KeyHandler) handleBookmarksKeys(key string) (tea.Model, tea.Cmd, bool) {
	a := kh.app
	it, selected := a.bookmarkList.SelectedItem().(bookmarkItem)
	switch key {
	case "enter":
		if selected {
			return a, kh.openReader(it.bookmark.Article, false), true
		}
		return a, nil, true
	case "/", kh.modifierKey + "s":
		a.clearStatus()
		return a, a.bookmarkInput.Focus(), true
	case kh.modifierKey + "b", kh.modifierKey + "x":
		if selected {
			return a, a.toggleBookmark(it.bookmark.Article), true
		}
		return a, nil, true
	case kh.modifierKey + "o":
		if selected {
			return a, a.openURL(it.bookmark.Article.Link), true
		}
		return a, nil, true
	case kh.modifierKey + "f":
		return a, kh.enterFeeds(), true
	}
	return a, nil, false
}

// delegateToCharm passes the key to the list or viewport of the current view.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := kh.app
	var cmd tea.Cmd
	switch a.view {
	case ViewHome:
		a.articleList, cmd = a.articleList.Update(msg)
	case ViewFeeds:
		a.feedList, cmd = a.feedList.Update(msg)
	case ViewBookmarks:
		a.bookmarkList, cmd = a.bookmarkList.Update(msg)
	case ViewReader:
		a.viewport, cmd = a.viewport.Update(msg)
	}
	return a, cmd
}

// openReader shows art in the reader view. Articles from the home list are
// marked as read on open.
func (kh *KeyHandler) openReader(art api.Article, markRead bool) tea.Cmd {
	a := kh.app
	a.currentArticle = &art
	a.previousView = a.view
	a.view = ViewReader
	a.loadingArticle = true
	a.clearStatus()

	cmds := []tea.Cmd{a.spinner.Tick, a.renderArticle(art, a.width)}
	if markRead {
		cmds = append(cmds, a.markRead(art.ID))
	}
	return tea.Batch(cmds...)
}

func (kh *KeyHandler) enterFeeds() tea.Cmd {
	a := kh.app
	a.view = ViewFeeds
	a.clearStatus()
	return a.loadFeeds()
}

func (kh *KeyHandler) enterBookmarks() tea.Cmd {
	a := kh.app
	a.previousView = a.view
	a.view = ViewBookmarks
	a.clearStatus()
	return a.loadBookmarks(sanitizeSearchInput(a.bookmarkInput.Value()))
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	a := kh.app
	switch a.view {
	case ViewAddFeed, ViewDeleteConfirm:
		a.view = ViewFeeds
		a.feedToDelete = nil
		for i := range a.feedInputs {
			a.feedInputs[i].Blur()
		}
		a.clearStatus()
		return a, nil

	case ViewReader:
		a.view = a.previousView
		a.currentArticle = nil
		a.loadingArticle = false
		if a.view == ViewHome {
			a.refreshArticles()
		}
		return a, nil

	case ViewFeeds, ViewBookmarks:
		a.view = ViewHome
		a.clearStatus()
		a.refreshArticles()
		return a, nil

	case ViewHome:
		c := a.svc.Listing
		switch {
		case a.status.kind == StatusError:
			a.clearStatus()
		case c.SearchTerm() != "":
			a.searchInput.Reset()
			c.SetSearchTerm("")
			a.refreshArticles()
		case c.SelectedFeed() != "":
			c.SelectFeed("")
			a.refreshArticles()
		case c.SelectedCategory() != "":
			c.SelectCategory("")
			a.refreshArticles()
		}
		return a, nil

	default:
		return a, nil
	}
}

// sanitizeSearchInput trims and collapses whitespace and limits the length
// of a typed query.
func sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if len(input) > maxSearchLength {
		input = input[:maxSearchLength]
	}
	return input
}

func (kh *KeyHandler) GetHelpForCurrentView() []string {
	mod := kh.modifierKey
	a := kh.app
	switch a.view {
	case ViewHome:
		if a.searchInput.Focused() {
			return []string{"type to search", "enter: done", "esc: clear"}
		}
		if a.svc.Listing.Loading() {
			return []string{mod + "r: retry", "q: quit"}
		}
		filter := "unread"
		if a.svc.Listing.Filter() == listing.FilterUnread {
			filter = "all"
		}
		return []string{
			"enter: read", mod + "s: search", mod + "u: " + filter,
			mod + "n/" + mod + "p: page", mod + "t: read/unread", mod + "o: open", mod + "b: bookmark",
			mod + "f: feeds", mod + "k: bookmarks", mod + "r: reload",
		}

	case ViewReader:
		help := []string{mod + "o: open", mod + "t: read/unread", mod + "b: bookmark"}
		if art := a.currentArticle; art != nil && isHN(*art) {
			help = append(help, mod+"d: discussion")
		}
		return append(help, "esc: back")

	case ViewFeeds:
		help := []string{"enter: show", mod + "n: new", mod + "r: refresh"}
		if len(a.feeds) > 0 {
			help = append(help, mod+"g: category", mod+"x: delete")
		}
		return append(help, "esc: back")

	case ViewAddFeed:
		return []string{"tab: next", "enter: add", "esc: cancel"}

	case ViewDeleteConfirm:
		return []string{"enter: confirm", "esc: cancel"}

	case ViewBookmarks:
		if a.bookmarkInput.Focused() {
			return []string{"type to search", "enter: done", "esc: clear"}
		}
		return []string{"enter: read", mod + "s: search", mod + "o: open", mod + "x: remove", "esc: back"}

	default:
		return nil
	}
}

var errEmptyURL = errors.New("feed URL cannot be empty")
