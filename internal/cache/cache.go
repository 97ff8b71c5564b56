package cache

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"itemmatch/internal/domain"
	"itemmatch/internal/storage"
)

// Entry is the persisted cache document: one vector per catalog row, in
// catalog order, valid only while FreshnessToken matches the source.
type Entry struct {
	FreshnessToken string      `json:"freshness_token"`
	Vectors        [][]float64 `json:"vectors"`
}

// Cache guarantees a vector per catalog row with minimal recomputation,
// regenerating wholesale whenever the catalog source changes.
type Cache struct {
	store storage.Store[Entry]
}

func New(store storage.Store[Entry]) *Cache {
	return &Cache{store: store}
}

// LoadOrBuild returns the embedding vectors for texts, reusing the persisted
// entry when it parses, its token matches and it covers every row. Anything
// else (missing, corrupt, stale, wrong length) falls through to regeneration.
// A persistence failure after regeneration is downgraded to a warning; the
// in-memory vectors stay usable for the current process.
func (c *Cache) LoadOrBuild(em domain.Embedder, texts []string, token string) ([][]float64, error) {
	entry, ok, err := c.store.Read()
	if err != nil {
		log.Warnf("embedding cache unreadable, regenerating: %v", err)
	} else if ok {
		if entry.FreshnessToken == token && len(entry.Vectors) == len(texts) {
			log.Infof("loaded %d embeddings from cache", len(entry.Vectors))
			return entry.Vectors, nil
		}
		log.Info("embedding cache is stale, regenerating")
	}

	if len(texts) == 0 {
		log.Warn("catalog has no rows, nothing to embed")
		vectors := [][]float64{}
		c.persist(token, vectors)
		return vectors, nil
	}

	log.Infof("generating embeddings for %d catalog rows", len(texts))
	vectors, err := em.EmbedBatch(texts)
	if err != nil {
		return nil, fmt.Errorf("generate embeddings: %w", err)
	}
	c.persist(token, vectors)
	return vectors, nil
}

func (c *Cache) persist(token string, vectors [][]float64) {
	if err := c.store.Write(Entry{FreshnessToken: token, Vectors: vectors}); err != nil {
		log.Warnf("failed to persist embedding cache: %v", err)
	}
}
