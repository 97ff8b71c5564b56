package service

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"itemmatch/internal/cache"
	"itemmatch/internal/catalog"
	"itemmatch/internal/domain"
	"itemmatch/internal/ledger"
	"itemmatch/internal/vectorindex"
)

// Matcher ranks catalog rows against free-text queries by semantic
// similarity and records human feedback on the suggestions it makes.
type Matcher struct {
	embedder domain.Embedder
	index    vectorindex.Index
	cache    *cache.Cache
	ledger   *ledger.Ledger
	items    []domain.CatalogItem
	ready    bool
}

func NewMatcher(embedder domain.Embedder, index vectorindex.Index, c *cache.Cache, l *ledger.Ledger) *Matcher {
	return &Matcher{embedder: embedder, index: index, cache: c, ledger: l}
}

// IngestCatalog prepares the embedder on the catalog descriptions, obtains
// one vector per row from the cache (building them when the freshness token
// no longer matches) and loads the vector index. An empty catalog is
// accepted; searches then short-circuit to no matches. A provider failure
// here is fatal when no usable cache exists, since search cannot proceed
// without vectors.
func (m *Matcher) IngestCatalog(items []domain.CatalogItem, token string) error {
	m.items = items
	m.ready = false
	if len(items) == 0 {
		if _, err := m.cache.LoadOrBuild(m.embedder, nil, token); err != nil {
			return err
		}
		return nil
	}
	texts := catalog.Descriptions(items)
	if err := m.embedder.Prepare(texts); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}
	vectors, err := m.cache.LoadOrBuild(m.embedder, texts, token)
	if err != nil {
		return err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		log.Warn("catalog produced no usable embeddings, search is disabled")
		return nil
	}
	// Clear before Init: the remote index drops its whole collection on Clear.
	if err := m.index.Clear(); err != nil {
		return fmt.Errorf("clear vector index: %w", err)
	}
	if err := m.index.Init(len(vectors[0])); err != nil {
		return fmt.Errorf("init vector index: %w", err)
	}
	positions := make([]int, len(items))
	for i, it := range items {
		positions[i] = it.Position
	}
	if err := m.index.Upsert(positions, vectors); err != nil {
		return fmt.Errorf("load vector index: %w", err)
	}
	m.ready = true
	return nil
}

// Search returns up to topK catalog rows ranked by descending similarity to
// the query, dropping everything below minScore. An empty or whitespace-only
// query returns no matches without touching the embedding provider, and any
// provider failure degrades to no matches rather than an error.
func (m *Matcher) Search(query string, topK int, minScore float64) []domain.SearchResult {
	if strings.TrimSpace(query) == "" {
		log.Warn("search query is empty, returning no matches")
		return nil
	}
	if !m.ready {
		log.Warn("no embeddings available, cannot search")
		return nil
	}
	if topK <= 0 {
		topK = 5
	}
	vec, err := m.embedder.Embed(query)
	if err != nil {
		log.Errorf("embedding query %q failed: %v", query, err)
		return nil
	}
	hits, err := m.index.Search(vec, topK)
	if err != nil {
		log.Errorf("similarity search for %q failed: %v", query, err)
		return nil
	}
	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		// Hits arrive in descending score order, so the first one below the
		// threshold ends the scan. The comparison uses the unrounded score.
		if hit.Score < minScore {
			break
		}
		// A remote index can hold stale points from a previous, larger
		// catalog; never let such a hit address beyond the loaded rows.
		if hit.Position < 0 || hit.Position >= len(m.items) {
			log.Warnf("dropping hit with stale catalog position %d", hit.Position)
			continue
		}
		item := m.items[hit.Position]
		results = append(results, domain.SearchResult{
			ItemCode:    item.Code,
			Description: item.Description,
			Score:       domain.RoundScore(hit.Score),
		})
	}
	return results
}

// RecordFeedback appends one classified feedback record for a completed
// search. A persistence failure is reported but the classification already
// made is still returned.
func (m *Matcher) RecordFeedback(query string, results []domain.SearchResult, userCode string) (domain.FeedbackRecord, error) {
	return m.ledger.Record(query, results, userCode)
}

// Items exposes the loaded catalog for display purposes.
func (m *Matcher) Items() []domain.CatalogItem { return m.items }
