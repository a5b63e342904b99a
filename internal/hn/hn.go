// Package hn recognises Hacker News articles and builds links to their
// discussion threads.
package hn

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	itemURLPrefix = "https://news.ycombinator.com/item?id="
	searchURLBase = "https://hn.algolia.com/?q="
)

var (
	itemIDPattern = regexp.MustCompile(`news\.ycombinator\.com/item\?id=(\d+)`)
	// "hn" has to stand alone so names like "John's Blog" do not match.
	hnWordPattern = regexp.MustCompile(`\bhn\b`)
)

// IsHackerNewsArticle reports whether an article came from Hacker News,
// judged by its feed name or its link.
func IsHackerNewsArticle(feedName, link string) bool {
	name := strings.ToLower(feedName)
	if strings.Contains(name, "hacker news") || hnWordPattern.MatchString(name) {
		return true
	}
	return strings.Contains(link, "ycombinator.com")
}

// IsCommentPage reports whether link already points at an HN item page.
func IsCommentPage(link string) bool {
	return strings.Contains(link, "news.ycombinator.com/item?id=")
}

// DiscussionURL returns the HN item page for link, or "" when link does
// not identify an HN item.
func DiscussionURL(link string) string {
	m := itemIDPattern.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return itemURLPrefix + m[1]
}

// SearchURL returns an hn.algolia.com search for title.
func SearchURL(title string) string {
	return searchURLBase + strings.ReplaceAll(url.QueryEscape(title), "+", "%20")
}

// BestDiscussionURL prefers the direct item page and falls back to a
// title search.
func BestDiscussionURL(title, link string) string {
	if u := DiscussionURL(link); u != "" {
		return u
	}
	return SearchURL(title)
}

// Content is what the discussion dialog shows for an article.
type Content struct {
	Title         string
	OriginalURL   string
	DiscussionURL string
	SearchURL     string
	FeedName      string
}

func ModalContent(title, link, feedName string) Content {
	return Content{
		Title:         title,
		OriginalURL:   link,
		DiscussionURL: BestDiscussionURL(title, link),
		SearchURL:     SearchURL(title),
		FeedName:      feedName,
	}
}
