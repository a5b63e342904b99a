// Package search keeps a full-text index over saved articles.
package search

// Document is the searchable form of an article. Text fields are expected
// to be plain text.
type Document struct {
	ID          int64
	Title       string
	Description string
	Author      string
	Feed        string
	URL         string
}

// Hit is one search result, best first.
type Hit struct {
	ID    int64
	Score float64
	Title string
}

// Indexer is the index API used by the bookmark store.
type Indexer interface {
	Index(d Document) error
	Replace(docs []Document) error
	Remove(id int64) error
	Search(query string, limit int) ([]Hit, error)
}

// DebugStatser reports index size for debug logging.
type DebugStatser interface {
	DocCount() (int, error)
}

var (
	_ Indexer      = (*Index)(nil)
	_ DebugStatser = (*Index)(nil)
)
