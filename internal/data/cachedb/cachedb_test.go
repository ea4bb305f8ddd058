package cachedb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kyletbuzbee/K-L-Recycling-Outreach/internal/extract"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRejectsEmptyAndDirectoryPaths(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)

	_, err = Open(t.TempDir())
	assert.Error(t, err)
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)
	sf := extract.NewExtractor(nil).Extract("Code.js", []byte("function a() { b(); }\n"))

	require.NoError(t, store.Put(sf))

	got, ok := store.Get("Code.js", sf.Hash)
	require.True(t, ok)
	assert.Equal(t, sf, got)
}

func TestGetMissOnUnknownKey(t *testing.T) {
	store := openTestStore(t)

	_, ok := store.Get("Code.js", "no-such-hash")
	assert.False(t, ok)
}

func TestCorruptPayloadIsAMiss(t *testing.T) {
	store := openTestStore(t)
	sf := extract.NewExtractor(nil).Extract("Code.js", []byte("var x = 1;\n"))
	require.NoError(t, store.Put(sf))

	_, err := store.db.Exec(`UPDATE extractions SET payload = 'not json' WHERE rel_path = ?`, "Code.js")
	require.NoError(t, err)

	_, ok := store.Get("Code.js", sf.Hash)
	assert.False(t, ok, "undecodable rows must read as cache misses")

	// Re-extract path: Put overwrites the bad row.
	require.NoError(t, store.Put(sf))
	got, ok := store.Get("Code.js", sf.Hash)
	require.True(t, ok)
	assert.Equal(t, sf, got)
}

func TestPruneDropsStaleHashes(t *testing.T) {
	store := openTestStore(t)
	old := extract.NewExtractor(nil).Extract("Code.js", []byte("var x = 1;\n"))
	cur := extract.NewExtractor(nil).Extract("Code.js", []byte("var x = 2;\n"))
	require.NoError(t, store.Put(old))
	require.NoError(t, store.Put(cur))

	require.NoError(t, store.Prune("Code.js", cur.Hash))

	_, ok := store.Get("Code.js", old.Hash)
	assert.False(t, ok)
	_, ok = store.Get("Code.js", cur.Hash)
	assert.True(t, ok)
}

func TestStoreSatisfiesExtractStore(t *testing.T) {
	var _ extract.Store = openTestStore(t)
}
