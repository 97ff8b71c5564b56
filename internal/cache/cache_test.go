package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itemmatch/internal/storage"
)

// stubEmbedder returns a fixed-length vector per text and counts batch calls.
type stubEmbedder struct {
	batchCalls int
	fail       bool
}

func (s *stubEmbedder) Name() string { return "stub" }

func (s *stubEmbedder) Prepare(corpus []string) error { return nil }

func (s *stubEmbedder) Dimension() int { return 3 }

func (s *stubEmbedder) Embed(text string) ([]float64, error) {
	if s.fail {
		return nil, errors.New("provider down")
	}
	return []float64{float64(len(text)), 1, 0}, nil
}

func (s *stubEmbedder) EmbedBatch(texts []string) ([][]float64, error) {
	s.batchCalls++
	if s.fail {
		return nil, errors.New("provider down")
	}
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i], _ = s.Embed(t)
	}
	return out, nil
}

func TestLoadOrBuildGeneratesAndPersists(t *testing.T) {
	store := storage.NewMemory[Entry]()
	em := &stubEmbedder{}
	c := New(store)

	texts := []string{"ball valve", "gate valve", "copper pipe"}
	vectors, err := c.LoadOrBuild(em, texts, "t1")
	require.NoError(t, err)
	assert.Len(t, vectors, len(texts))
	assert.Equal(t, 1, em.batchCalls)

	entry, ok, err := store.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "t1", entry.FreshnessToken)
	assert.Len(t, entry.Vectors, len(texts))
}

func TestLoadOrBuildIsIdempotentForUnchangedToken(t *testing.T) {
	store := storage.NewMemory[Entry]()
	em := &stubEmbedder{}
	c := New(store)

	texts := []string{"ball valve", "gate valve"}
	first, err := c.LoadOrBuild(em, texts, "t1")
	require.NoError(t, err)

	second, err := c.LoadOrBuild(em, texts, "t1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, em.batchCalls, "second call must be a pure cache hit")
}

func TestLoadOrBuildRegeneratesOnTokenChange(t *testing.T) {
	store := storage.NewMemory[Entry]()
	em := &stubEmbedder{}
	c := New(store)

	texts := []string{"ball valve"}
	_, err := c.LoadOrBuild(em, texts, "t1")
	require.NoError(t, err)

	_, err = c.LoadOrBuild(em, texts, "t2")
	require.NoError(t, err)
	assert.Equal(t, 2, em.batchCalls)

	entry, ok, _ := store.Read()
	require.True(t, ok)
	assert.Equal(t, "t2", entry.FreshnessToken)
}

func TestLoadOrBuildRegeneratesOnRowCountMismatch(t *testing.T) {
	store := storage.NewMemory[Entry]()
	require.NoError(t, store.Write(Entry{FreshnessToken: "t1", Vectors: [][]float64{{1, 0, 0}}}))
	em := &stubEmbedder{}
	c := New(store)

	vectors, err := c.LoadOrBuild(em, []string{"a", "b"}, "t1")
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, 1, em.batchCalls)
}

type faultyStore struct {
	readErr  error
	writeErr error
}

func (s *faultyStore) Read() (Entry, bool, error) { return Entry{}, false, s.readErr }

func (s *faultyStore) Write(Entry) error { return s.writeErr }

func TestLoadOrBuildTreatsCorruptCacheAsMiss(t *testing.T) {
	em := &stubEmbedder{}
	c := New(&faultyStore{readErr: errors.New("unexpected end of JSON input")})

	vectors, err := c.LoadOrBuild(em, []string{"a"}, "t1")
	require.NoError(t, err)
	assert.Len(t, vectors, 1)
	assert.Equal(t, 1, em.batchCalls)
}

func TestLoadOrBuildSurvivesPersistenceFailure(t *testing.T) {
	em := &stubEmbedder{}
	c := New(&faultyStore{writeErr: errors.New("disk full")})

	vectors, err := c.LoadOrBuild(em, []string{"a", "b"}, "t1")
	require.NoError(t, err, "a persistence failure must not abort the search path")
	assert.Len(t, vectors, 2)
}

func TestLoadOrBuildEmptyCatalog(t *testing.T) {
	store := storage.NewMemory[Entry]()
	em := &stubEmbedder{}
	c := New(store)

	vectors, err := c.LoadOrBuild(em, nil, "t1")
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, em.batchCalls, "empty catalog must not invoke the provider")
}

func TestLoadOrBuildProviderFailureIsFatal(t *testing.T) {
	store := storage.NewMemory[Entry]()
	em := &stubEmbedder{fail: true}
	c := New(store)

	_, err := c.LoadOrBuild(em, []string{"a"}, "t1")
	assert.Error(t, err)
}
