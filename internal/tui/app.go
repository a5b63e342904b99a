package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/bookmarks"
	"github.com/pders01/rss-reader/internal/config"
	"github.com/pders01/rss-reader/internal/feed"
	"github.com/pders01/rss-reader/internal/listing"
	"github.com/pders01/rss-reader/internal/render"
)

// FeedService lists and removes server-side feeds.
type FeedService interface {
	Feeds(ctx context.Context) ([]api.Feed, error)
	DeleteFeed(ctx context.Context, id int64) error
}

// FeedSubscriber validates, probes and adds a feed.
type FeedSubscriber interface {
	Subscribe(ctx context.Context, req feed.Request) (api.Feed, error)
}

// BookmarkStore keeps articles saved for later.
type BookmarkStore interface {
	List() ([]bookmarks.Bookmark, error)
	Toggle(a api.Article) (bool, error)
	Has(id int64) bool
	Search(query string, limit int) ([]bookmarks.Bookmark, error)
}

// URLOpener opens a link outside the terminal.
type URLOpener interface {
	Open(rawURL string) error
}

// Services are the collaborators the App drives. Only Listing is
// required; views whose service is nil report it in the status bar.
type Services struct {
	Listing    *listing.Controller
	Feeds      FeedService
	Subscriber FeedSubscriber
	Bookmarks  BookmarkStore
	Opener     URLOpener
}

const bookmarkSearchLimit = 50

const (
	addFeedURL = iota
	addFeedName
	addFeedCategory
)

type App struct {
	config     *config.Config
	svc        Services
	theme      Theme
	keyHandler *KeyHandler
	markdown   *render.MarkdownRenderer
	timeout    time.Duration
	now        func() time.Time

	articleList   list.Model
	feedList      list.Model
	bookmarkList  list.Model
	searchInput   textinput.Model
	bookmarkInput textinput.Model
	feedInputs    []textinput.Model
	focusedInput  int
	viewport      viewport.Model
	spinner       spinner.Model

	view           View
	previousView   View
	currentArticle *api.Article
	feedToDelete   *api.Feed
	feeds          []api.Feed
	loadingArticle bool
	loadErr        error
	status         status
	width          int
	height         int
}

func newList(title string) list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	return l
}

func NewApp(svc Services, cfg *config.Config) *App {
	si := textinput.New()
	si.Placeholder = "Search titles and descriptions..."
	si.Prompt = "/ "

	bi := textinput.New()
	bi.Placeholder = "Search bookmarks..."
	bi.Prompt = "/ "

	placeholders := []string{"Feed URL (https://...)", "Name (optional)", "Category (" + cfg.Feed.DefaultCategory + ")"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = p
		inputs[i].CharLimit = 2048
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	timeout := cfg.API.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	app := &App{
		config:        cfg,
		svc:           svc,
		theme:         NewTheme(cfg.UI.Colors),
		markdown:      render.NewMarkdownRenderer(cfg.UI.Article.GlamourStyle, cfg.UI.Article.WordWrapMinWidth, cfg.UI.Article.WordWrapMaxWidth),
		timeout:       timeout,
		now:           time.Now,
		articleList:   newList("› articles"),
		feedList:      newList("› feeds"),
		bookmarkList:  newList("› bookmarks"),
		searchInput:   si,
		bookmarkInput: bi,
		feedInputs:    inputs,
		viewport:      viewport.New(0, 0),
		spinner:       sp,
		view:          ViewHome,
		previousView:  ViewHome,
	}
	app.spinner.Style = lipgloss.NewStyle().Foreground(app.theme.Accent)
	app.keyHandler = NewKeyHandler(app, cfg)
	return app
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.loadArticles())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.svc.Listing.Loading() && !a.loadingArticle {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case articlesLoadedMsg:
		a.loadErr = msg.err
		if msg.err != nil {
			a.setStatus(errorText(msg.err), StatusError)
		} else if a.status.text == MsgLoading || a.status.text == MsgRefreshing {
			a.clearStatus()
		}
		a.refreshArticles()

	case markedReadMsg:
		if msg.err != nil {
			a.setStatus(errorText(msg.err), StatusError)
		}
		if cur := a.currentArticle; cur != nil && cur.ID == msg.id {
			if art, ok := a.svc.Listing.Article(msg.id); ok {
				a.currentArticle = &art
			}
		}
		a.refreshArticles()

	case articleRenderedMsg:
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
		}

	case feedsLoadedMsg:
		a.feeds = msg.feeds
		items := make([]list.Item, len(msg.feeds))
		for i, f := range msg.feeds {
			items[i] = feedItem{feed: f}
		}
		a.feedList.SetItems(items)

	case feedAddedMsg:
		if msg.err != nil {
			a.setStatus(errorText(msg.err), StatusError)
			return a, nil
		}
		a.setStatus(MsgAddedFeed(msg.feed.Name), StatusSuccess)
		a.view = ViewFeeds
		return a, tea.Batch(a.loadFeeds(), a.loadArticles())

	case feedDeletedMsg:
		a.feedToDelete = nil
		a.view = ViewFeeds
		if msg.err != nil {
			a.setStatus(errorText(msg.err), StatusError)
			return a, nil
		}
		a.setStatus(MsgFeedDeleted, StatusSuccess)
		return a, tea.Batch(a.loadFeeds(), a.loadArticles())

	case bookmarksLoadedMsg:
		if msg.err != nil {
			a.setStatus(errorText(msg.err), StatusError)
			return a, nil
		}
		items := make([]list.Item, len(msg.bookmarks))
		for i, b := range msg.bookmarks {
			items[i] = bookmarkItem{card: render.NewCard(b.Article, a.now(), a.config.UI.Article.MaxDescriptionLength), bookmark: b}
		}
		a.bookmarkList.SetItems(items)
		if msg.query != "" {
			a.setStatus(MsgResultsCount(len(msg.bookmarks)), StatusInfo)
		}

	case bookmarkToggledMsg:
		if msg.err != nil {
			a.setStatus(errorText(msg.err), StatusError)
			return a, nil
		}
		a.setStatus(MsgBookmarked(msg.title, msg.on), StatusSuccess)
		if a.view == ViewBookmarks {
			return a, a.loadBookmarks(a.bookmarkInput.Value())
		}

	case openedMsg:
		if msg.err != nil {
			a.setStatus(errorText(msg.err), StatusError)
		}

	case errorMsg:
		a.setStatus(errorText(msg.err), StatusError)
	}

	if a.view == ViewReader {
		switch msg.(type) {
		case tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			return a, cmd
		}
	}
	return a, nil
}

// refreshArticles rebuilds the home list from the controller's visible page.
func (a *App) refreshArticles() {
	arts := a.svc.Listing.VisibleArticles()
	now := a.now()
	items := make([]list.Item, len(arts))
	for i, art := range arts {
		items[i] = articleItem{card: render.NewCard(art, now, a.config.UI.Article.MaxDescriptionLength)}
	}
	a.articleList.SetItems(items)
	if a.articleList.Index() >= len(items) {
		a.articleList.Select(max(len(items)-1, 0))
	}
}

func (a *App) selectedArticle() (api.Article, bool) {
	it, ok := a.articleList.SelectedItem().(articleItem)
	if !ok {
		return api.Article{}, false
	}
	return a.svc.Listing.Article(it.card.ID)
}

func (a *App) layout() {
	h := a.contentHeight()
	listHeight := h - 4
	if a.searchInput.Focused() || a.searchInput.Value() != "" {
		listHeight -= 3
	}
	a.articleList.SetSize(a.width, max(listHeight, 3))
	a.feedList.SetSize(a.width, max(h-2, 3))

	bookmarkHeight := h - 2
	if a.bookmarkInput.Focused() || a.bookmarkInput.Value() != "" {
		bookmarkHeight -= 3
	}
	a.bookmarkList.SetSize(a.width, max(bookmarkHeight, 3))

	a.viewport.Width = a.width
	a.viewport.Height = h

	inputWidth := max(a.width-8, 10)
	a.searchInput.Width = inputWidth
	a.bookmarkInput.Width = inputWidth
	for i := range a.feedInputs {
		a.feedInputs[i].Width = min(inputWidth, 60)
	}
}

func (a *App) View() string {
	a.layout()

	var content string
	switch a.view {
	case ViewHome:
		content = a.homeView()
	case ViewReader:
		if a.loadingArticle {
			content = a.renderCentered(a.spinner.View() + " " + a.theme.Meta.Render(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewFeeds:
		if len(a.feeds) == 0 {
			content = a.renderCentered(a.theme.WelcomeMessage(a.keyHandler.modifierKey))
		} else {
			content = a.feedList.View()
		}
	case ViewAddFeed:
		content = a.addFeedView()
	case ViewDeleteConfirm:
		content = a.deleteConfirmView()
	case ViewBookmarks:
		content = a.bookmarksView()
	}

	content = lipgloss.NewStyle().Height(a.contentHeight()).MaxHeight(a.contentHeight()).Render(content)
	separator := a.theme.Separator.Render(strings.Repeat("─", max(a.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Left, content, separator, a.statusBar())
}

func (a *App) homeView() string {
	c := a.svc.Listing
	if c.Loading() {
		msg := a.spinner.View() + " " + a.theme.Meta.Render(MsgLoading)
		if a.loadErr != nil {
			msg = a.theme.ErrorText.Render("✗ "+errorText(a.loadErr)) + "\n" +
				a.theme.Help.Render(a.keyHandler.modifierKey+"r: retry")
		}
		return a.renderCentered(msg)
	}

	st := c.Stats()
	title := CompactLogo + " " + ViewHome.Route()
	if f := c.SelectedFeed(); f != "" {
		title += " " + f
	}
	if cat := c.SelectedCategory(); cat != "" {
		title += " [" + cat + "]"
	}
	subtitle := fmt.Sprintf("%d unread · %d total · %d feeds", st.UnreadArticles, st.TotalArticles, st.TotalFeeds)
	if c.Filter() == listing.FilterUnread {
		subtitle += " · unread only"
	}

	rows := []string{a.renderHeader(title, subtitle)}
	if a.searchInput.Focused() || a.searchInput.Value() != "" {
		rows = append(rows, a.renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width))
	}

	switch {
	case st.TotalFeeds == 0 && c.MatchCount() == 0:
		rows = append(rows, a.theme.CompactBanner("No feeds yet. Press "+a.keyHandler.modifierKey+"f then "+a.keyHandler.modifierKey+"n to add one"))
	case len(a.articleList.Items()) == 0:
		rows = append(rows, "", a.theme.Meta.Render(MsgNoArticles))
	default:
		rows = append(rows, a.articleList.View())
	}
	rows = append(rows, a.theme.Meta.Render(MsgPage(c.CurrentPage(), c.PageCount(), c.MatchCount())))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) addFeedView() string {
	rows := []string{a.theme.Header.Render("› add feed"), ""}
	for i := range a.feedInputs {
		rows = append(rows, a.renderInputFrame(a.feedInputs[i].View(), i == a.focusedInput, a.feedInputs[i].Width))
	}
	rows = append(rows, "", a.theme.Help.Render("Tab: next field • Enter: add • Esc: cancel"))
	return a.renderCentered(lipgloss.JoinVertical(lipgloss.Center, rows...))
}

func (a *App) deleteConfirmView() string {
	name := "Unknown Feed"
	if a.feedToDelete != nil {
		name = a.feedToDelete.Name
		if name == "" {
			name = a.feedToDelete.URL
		}
	}
	modalWidth := max(a.width*4/5, 15)
	center := lipgloss.NewStyle().Width(modalWidth).Align(lipgloss.Center)

	return a.renderCentered(lipgloss.JoinVertical(
		lipgloss.Center,
		a.theme.ErrorText.Render("⚠ Delete Feed"),
		"",
		center.Foreground(a.theme.Text).Render("Delete this feed?"),
		"",
		center.Inherit(a.theme.Highlight).Render(render.TruncateMiddle(name, modalWidth-4)),
		"",
		center.Foreground(a.theme.Muted).Render("The server removes its articles too."),
		"",
		a.theme.Help.Render("Enter: confirm • Esc: cancel"),
	))
}

func (a *App) bookmarksView() string {
	rows := []string{a.renderHeader(CompactLogo+" "+ViewBookmarks.Route(), "")}
	if a.bookmarkInput.Focused() || a.bookmarkInput.Value() != "" {
		rows = append(rows, a.renderInputFrame(a.bookmarkInput.View(), a.bookmarkInput.Focused(), a.bookmarkInput.Width))
	}
	if len(a.bookmarkList.Items()) == 0 {
		rows = append(rows, "", a.theme.Meta.Render(MsgNoBookmarks))
	} else {
		rows = append(rows, a.bookmarkList.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (a *App) statusBar() string {
	bar := lipgloss.NewStyle().Width(a.width).Padding(0, 1)
	if a.status.text != "" {
		prefix := ""
		if a.status.kind == StatusError {
			prefix = "✗ "
		}
		return bar.Render(a.theme.statusStyle(a.status.kind).Render(prefix + a.status.text))
	}
	commands := a.keyHandler.GetHelpForCurrentView()
	return bar.Inherit(a.theme.Help).Render(render.Truncate(strings.Join(commands, " • "), max(a.width-2, 1)))
}

type articleItem struct {
	card render.Card
}

func (i articleItem) Title() string { return i.card.Heading() }
func (i articleItem) Description() string {
	meta := i.card.Meta()
	if i.card.Summary == "" {
		return meta
	}
	if meta == "" {
		return i.card.Summary
	}
	return meta + " · " + i.card.Summary
}
func (i articleItem) FilterValue() string { return i.card.Title }

type feedItem struct {
	feed api.Feed
}

func (i feedItem) Title() string { return i.feed.Name }
func (i feedItem) Description() string {
	desc := i.feed.URL
	if i.feed.Category != "" {
		desc = i.feed.Category + " · " + desc
	}
	return desc
}
func (i feedItem) FilterValue() string { return i.feed.Name }

type bookmarkItem struct {
	card     render.Card
	bookmark bookmarks.Bookmark
}

func (i bookmarkItem) Title() string { return i.card.Title }
func (i bookmarkItem) Description() string {
	return i.card.Meta() + " · saved " + render.RelativeTime(i.bookmark.SavedAt, time.Now())
}
func (i bookmarkItem) FilterValue() string { return i.card.Title }

type articlesLoadedMsg struct {
	err error
}

type markedReadMsg struct {
	id  int64
	err error
}

type articleRenderedMsg struct {
	content string
}

type feedsLoadedMsg struct {
	feeds []api.Feed
}

type feedAddedMsg struct {
	feed api.Feed
	err  error
}

type feedDeletedMsg struct {
	err error
}

type bookmarksLoadedMsg struct {
	query     string
	bookmarks []bookmarks.Bookmark
	err       error
}

type bookmarkToggledMsg struct {
	title string
	on    bool
	err   error
}

type openedMsg struct {
	err error
}

type errorMsg struct {
	err error
}
