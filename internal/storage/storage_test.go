package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Token   string      `json:"token"`
	Vectors [][]float64 `json:"vectors"`
}

func TestJSONFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewJSONFile[doc](path)

	_, ok, err := store.Read()
	require.NoError(t, err)
	assert.False(t, ok, "missing file reads as absent, not as an error")

	want := doc{Token: "t1", Vectors: [][]float64{{1, 0}, {0, 1}}}
	require.NoError(t, store.Write(want))

	got, ok, err := store.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestJSONFileRewriteReplacesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewJSONFile[doc](path)

	require.NoError(t, store.Write(doc{Token: "t1"}))
	require.NoError(t, store.Write(doc{Token: "t2"}))

	got, ok, err := store.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "t2", got.Token)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestJSONFileCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	store := NewJSONFile[doc](path)
	_, ok, err := store.Read()
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemory[[]string]()

	_, ok, err := store.Read()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Write([]string{"a", "b"}))
	got, ok, err := store.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
}
