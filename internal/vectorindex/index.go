package vectorindex

import "itemmatch/internal/domain"

// Index ranks a fixed set of vectors against a query vector.
// Search returns hits in descending score order; ties are broken by
// ascending catalog position so identical inputs always rank identically.
type Index interface {
	Init(dimension int) error
	Upsert(positions []int, vectors [][]float64) error
	Search(vector []float64, topK int) ([]domain.Hit, error)
	Clear() error
}
