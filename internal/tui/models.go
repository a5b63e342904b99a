package tui

type View int

const (
	ViewHome View = iota
	ViewReader
	ViewFeeds
	ViewAddFeed
	ViewDeleteConfirm
	ViewBookmarks
)

// Route is the path-style name of a view, shown in the header.
func (v View) Route() string {
	switch v {
	case ViewHome:
		return "/"
	case ViewReader:
		return "/article"
	case ViewFeeds:
		return "/feeds"
	case ViewAddFeed:
		return "/feeds/new"
	case ViewDeleteConfirm:
		return "/feeds/delete"
	case ViewBookmarks:
		return "/bookmarks"
	default:
		return "/"
	}
}
