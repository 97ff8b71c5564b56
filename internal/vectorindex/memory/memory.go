package memory

import (
	"errors"
	"sort"
	"sync"

	"itemmatch/internal/domain"
)

// Index is a brute-force cosine similarity index over in-memory vectors.
// Safe for concurrent readers; writes are serialized by the caller.
type Index struct {
	mu        sync.RWMutex
	dimension int
	positions []int
	vectors   [][]float64
}

func NewIndex() *Index { return &Index{} }

func (s *Index) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.positions = nil
	s.vectors = nil
	return nil
}

func (s *Index) Upsert(positions []int, vectors [][]float64) error {
	if len(positions) != len(vectors) {
		return errors.New("positions and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	s.positions = append(s.positions, positions...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *Index) Search(vector []float64, topK int) ([]domain.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	// cosine similarity; vectors are assumed L2-normalized
	hits := make([]domain.Hit, len(s.vectors))
	for i := range s.vectors {
		hits[i] = domain.Hit{Position: s.positions[i], Score: dot(s.vectors[i], vector)}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func (s *Index) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = nil
	s.vectors = nil
	return nil
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
