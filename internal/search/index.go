package search

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"
)

// Index is a bleve full-text index of Documents.
type Index struct {
	idx bleve.Index
}

// Open opens the index at path, creating it if needed. An empty path
// gives an in-memory index.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating in-memory index: %w", err)
		}
		return &Index{idx: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, fmt.Errorf("creating index directory: %w", mkErr)
		}
		idx, err = bleve.New(path, buildIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	text.Store = false

	stored := bleve.NewTextFieldMapping()
	stored.Analyzer = standard.Name
	stored.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", text)
	dm.AddFieldMappingsAt("author", text)
	dm.AddFieldMappingsAt("feed", stored)
	dm.AddFieldMappingsAt("url", stored)

	im.DefaultMapping = dm
	return im
}

func docID(id int64) string { return strconv.FormatInt(id, 10) }

func (d Document) fields() map[string]any {
	return map[string]any{
		"title":       d.Title,
		"description": d.Description,
		"author":      d.Author,
		"feed":        d.Feed,
		"url":         d.URL,
	}
}

func (i *Index) Index(d Document) error {
	return i.idx.Index(docID(d.ID), d.fields())
}

// Replace drops every document and indexes docs in one batch.
func (i *Index) Replace(docs []Document) error {
	existing, err := i.allIDs()
	if err != nil {
		return err
	}

	batch := i.idx.NewBatch()
	for _, id := range existing {
		batch.Delete(id)
	}
	for _, d := range docs {
		if err := batch.Index(docID(d.ID), d.fields()); err != nil {
			return fmt.Errorf("indexing %d: %w", d.ID, err)
		}
	}
	return i.idx.Batch(batch)
}

func (i *Index) allIDs() ([]string, error) {
	count, err := i.idx.DocCount()
	if err != nil || count == 0 {
		return nil, err
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

func (i *Index) Remove(id int64) error {
	return i.idx.Delete(docID(id))
}

// Search matches each term of query against title, description, author
// and feed name, boosting title hits. Queries shorter than two characters
// return nothing.
func (i *Index) Search(query string, limit int) ([]Hit, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	boosts := []struct {
		field string
		boost float64
	}{
		{"title", 4.0},
		{"description", 2.0},
		{"author", 1.5},
		{"feed", 1.0},
	}

	var qs []bleveQuery.Query
	for _, tok := range tokens {
		for _, b := range boosts {
			mq := bleve.NewMatchQuery(tok)
			mq.SetField(b.field)
			mq.SetBoost(b.boost)
			qs = append(qs, mq)

			pq := bleve.NewPrefixQuery(tok)
			pq.SetField(b.field)
			pq.SetBoost(b.boost * 0.8)
			qs = append(qs, pq)
		}
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	req.Fields = []string{"title"}
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			continue
		}
		hit := Hit{ID: id, Score: h.Score}
		if t, ok := h.Fields["title"].(string); ok {
			hit.Title = t
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (i *Index) DocCount() (int, error) {
	n, err := i.idx.DocCount()
	return int(n), err
}

func (i *Index) Close() error {
	return i.idx.Close()
}

// tokenize lowercases text and splits it on anything that is not a letter
// or digit, dropping single characters.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return terms
}
