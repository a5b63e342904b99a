// Package bookmarks keeps articles the user saved for later in a local
// bbolt database, optionally backed by a full-text index.
package bookmarks

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/debuglog"
	"github.com/pders01/rss-reader/internal/render"
	"github.com/pders01/rss-reader/internal/search"
)

var bookmarksBucket = []byte("bookmarks")

var ErrNotFound = errors.New("bookmark not found")

// Bookmark is a saved copy of an article.
type Bookmark struct {
	Article api.Article `json:"article"`
	SavedAt time.Time   `json:"saved_at"`
}

type Store struct {
	db    *bolt.DB
	index search.Indexer
	now   func() time.Time
}

// Open opens or creates the database at path.
func Open(path string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = time.Second
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating bookmarks directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, createErr := tx.CreateBucketIfNotExists(bookmarksBucket)
		return createErr
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AttachIndex makes Search use idx and rebuilds it from the stored
// bookmarks.
func (s *Store) AttachIndex(idx search.Indexer) error {
	all, err := s.List()
	if err != nil {
		return err
	}
	docs := make([]search.Document, 0, len(all))
	for _, b := range all {
		docs = append(docs, document(b.Article))
	}
	if err := idx.Replace(docs); err != nil {
		return fmt.Errorf("indexing bookmarks: %w", err)
	}
	s.index = idx
	if st, ok := idx.(search.DebugStatser); ok {
		if n, err := st.DocCount(); err == nil {
			debuglog.Debugf("bookmark index holds %d documents", n)
		}
	}
	return nil
}

func key(id int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func document(a api.Article) search.Document {
	return search.Document{
		ID:          a.ID,
		Title:       render.PlainText(a.Title),
		Description: render.PlainText(a.Description),
		Author:      a.Author,
		Feed:        a.Feed.Name,
		URL:         a.Link,
	}
}

// Add saves a. Saving an article again refreshes the stored copy but
// keeps the original save time.
func (s *Store) Add(a api.Article) (Bookmark, error) {
	b := Bookmark{Article: a, SavedAt: s.now().UTC()}

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bookmarksBucket)
		if existing := bucket.Get(key(a.ID)); existing != nil {
			var prev Bookmark
			if err := json.Unmarshal(existing, &prev); err == nil {
				b.SavedAt = prev.SavedAt
			}
		}
		data, err := json.Marshal(b)
		if err != nil {
			return err
		}
		return bucket.Put(key(a.ID), data)
	})
	if err != nil {
		return Bookmark{}, fmt.Errorf("saving bookmark %d: %w", a.ID, err)
	}

	if s.index != nil {
		if err := s.index.Index(document(a)); err != nil {
			debuglog.WithFields(debuglog.Fields{"article": a.ID}).Warnf("indexing bookmark: %v", err)
		}
	}
	return b, nil
}

func (s *Store) Remove(id int64) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bookmarksBucket)
		if bucket.Get(key(id)) == nil {
			return ErrNotFound
		}
		return bucket.Delete(key(id))
	})
	if err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Remove(id); err != nil {
			debuglog.WithFields(debuglog.Fields{"article": id}).Warnf("unindexing bookmark: %v", err)
		}
	}
	return nil
}

// Toggle removes the bookmark for a if there is one and adds it otherwise.
// It reports whether a is bookmarked afterwards.
func (s *Store) Toggle(a api.Article) (bool, error) {
	err := s.Remove(a.ID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := s.Add(a); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) Get(id int64) (Bookmark, error) {
	var b Bookmark
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bookmarksBucket).Get(key(id))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &b)
	})
	return b, err
}

func (s *Store) Has(id int64) bool {
	_, err := s.Get(id)
	return err == nil
}

// List returns every bookmark, most recently saved first.
func (s *Store) List() ([]Bookmark, error) {
	var out []Bookmark
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bookmarksBucket).ForEach(func(_, v []byte) error {
			var b Bookmark
			if err := json.Unmarshal(v, &b); err != nil {
				return nil
			}
			out = append(out, b)
			return nil
		})
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out, err
}

// Search finds bookmarks matching query. It uses the attached index when
// there is one and a case-insensitive substring match otherwise.
func (s *Store) Search(query string, limit int) ([]Bookmark, error) {
	if s.index == nil {
		return s.scan(query, limit)
	}

	hits, err := s.index.Search(query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Bookmark, 0, len(hits))
	for _, h := range hits {
		b, err := s.Get(h.ID)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Store) scan(query string, limit int) ([]Bookmark, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Bookmark{}, nil
	}

	out := []Bookmark{}
	for _, b := range all {
		d := document(b.Article)
		text := strings.ToLower(d.Title + " " + d.Description + " " + d.Author + " " + d.Feed)
		if strings.Contains(text, q) {
			out = append(out, b)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}
