package bookmarks

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/rss-reader/internal/api"
	"github.com/pders01/rss-reader/internal/search"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "bookmarks.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return store
}

func testArticle(id int64, title string) api.Article {
	return api.Article{
		ID:          id,
		Title:       title,
		Link:        "https://example.org/" + title,
		Description: "<p>About " + title + "</p>",
		Feed:        api.FeedRef{Name: "Example Feed"},
	}
}

func TestStore_AddGetRemove(t *testing.T) {
	store := setupTestStore(t)

	saved, err := store.Add(testArticle(1, "Generics"))
	require.NoError(t, err)
	assert.False(t, saved.SavedAt.IsZero())

	got, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Generics", got.Article.Title)
	assert.Equal(t, "Example Feed", got.Article.Feed.Name)
	assert.True(t, store.Has(1))

	require.NoError(t, store.Remove(1))
	assert.False(t, store.Has(1))
	assert.ErrorIs(t, store.Remove(1), ErrNotFound)

	_, err = store.Get(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_AddAgainKeepsSaveTime(t *testing.T) {
	store := setupTestStore(t)

	first, err := store.Add(testArticle(1, "Generics"))
	require.NoError(t, err)

	updated := testArticle(1, "Generics")
	updated.IsRead = true
	second, err := store.Add(updated)
	require.NoError(t, err)

	assert.Equal(t, first.SavedAt, second.SavedAt)
	got, err := store.Get(1)
	require.NoError(t, err)
	assert.True(t, got.Article.IsRead)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := setupTestStore(t)

	for i, title := range []string{"first", "second", "third"} {
		_, err := store.Add(testArticle(int64(i+1), title))
		require.NoError(t, err)
	}

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Article.Title)
	assert.Equal(t, "first", list[2].Article.Title)
}

func TestStore_Toggle(t *testing.T) {
	store := setupTestStore(t)
	a := testArticle(5, "Toggle")

	on, err := store.Toggle(a)
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, store.Has(5))

	on, err = store.Toggle(a)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, store.Has(5))
}

func TestStore_SearchWithoutIndex(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Add(testArticle(1, "Generics"))
	require.NoError(t, err)
	_, err = store.Add(testArticle(2, "Channels"))
	require.NoError(t, err)

	res, err := store.Search("about chan", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int64(2), res[0].Article.ID)

	res, err = store.Search("  ", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestStore_SearchWithIndex(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.Add(testArticle(1, "Generics"))
	require.NoError(t, err)

	idx, err := search.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	require.NoError(t, store.AttachIndex(idx))

	n, err := idx.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "existing bookmarks are indexed on attach")

	_, err = store.Add(testArticle(2, "Channels"))
	require.NoError(t, err)

	res, err := store.Search("channels", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int64(2), res[0].Article.ID)

	require.NoError(t, store.Remove(2))
	res, err = store.Search("channels", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestOpen_LockedDatabaseTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.db")
	store, err := Open(path, time.Second)
	require.NoError(t, err)
	defer store.Close()

	_, err = Open(path, 50*time.Millisecond)
	assert.Error(t, err)
}
