package search

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docs = []Document{
	{ID: 1, Title: "Hello World", Description: "greeting article", Feed: "Test Feed", URL: "https://example.com/1"},
	{ID: 2, Title: "Golang Tips", Description: "bleve and search", Author: "Rob", Feed: "Go Blog", URL: "https://example.com/2"},
}

func memIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	require.NoError(t, idx.Replace(docs))
	return idx
}

func hitIDs(hits []Hit) []int64 {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return ids
}

func TestIndexSearchesFields(t *testing.T) {
	idx := memIndex(t)

	tests := []struct {
		query string
		want  []int64
	}{
		{query: "golang", want: []int64{2}},
		{query: "Golang", want: []int64{2}},
		{query: "gola", want: []int64{2}},
		{query: "greeting", want: []int64{1}},
		{query: "rob", want: []int64{2}},
		{query: "test feed", want: []int64{1}},
		{query: "nothing-matches-this", want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			hits, err := idx.Search(tt.query, 10)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, hitIDs(hits))
		})
	}
}

func TestIndexTitleRanksFirst(t *testing.T) {
	idx := memIndex(t)
	require.NoError(t, idx.Index(Document{ID: 3, Title: "Misc", Description: "hello again"}))

	hits, err := idx.Search("hello", 10)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, "Hello World", hits[0].Title)
}

func TestIndexShortQuery(t *testing.T) {
	idx := memIndex(t)

	hits, err := idx.Search("a", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexRemoveAndReplace(t *testing.T) {
	idx := memIndex(t)

	require.NoError(t, idx.Remove(1))
	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, idx.Replace([]Document{{ID: 9, Title: "Only one"}}))
	n, err = idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hits, err := idx.Search("golang", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexOnDiskReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.bleve")

	idx, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, idx.Replace(docs))
	require.NoError(t, idx.Close())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	idx, err = Open(path)
	require.NoError(t, err)
	defer idx.Close()

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "go"}, tokenize("Hello, world! a go"))
	assert.Empty(t, tokenize("a b c"))
}
