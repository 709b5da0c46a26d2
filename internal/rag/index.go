package rag

import (
	"fmt"
	"sort"
)

// FlatIndex is a brute-force nearest-neighbor structure over fixed-dimension
// float32 vectors. Per-course corpora run from tens to low thousands of
// chunks, so a linear scan with exact L2 distances is the right trade:
// search results never depend on tuning parameters.
//
// An index is append-only; a course re-index builds a fresh one. Searching
// never mutates state, so one decoded index is safe for concurrent queries.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an empty index for vectors of the given dimension.
// Dimension zero is the valid empty-corpus index.
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

func (ix *FlatIndex) Dimension() int { return ix.dim }

func (ix *FlatIndex) Len() int { return len(ix.vectors) }

// Add appends vectors in insertion order. Position i in the index must
// always describe the same chunk as position i in the metadata map, so
// callers append vectors and metadata records in lockstep.
func (ix *FlatIndex) Add(vectors ...[]float32) error {
	for _, v := range vectors {
		if len(v) != ix.dim {
			return fmt.Errorf("%w: vector dimension %d does not match index dimension %d", ErrConfig, len(v), ix.dim)
		}
		ix.vectors = append(ix.vectors, v)
	}
	return nil
}

// Neighbor is one search hit: the insertion-order position of a stored
// vector and its squared L2 distance from the query.
type Neighbor struct {
	Position int
	Distance float32
}

// Search returns the k nearest stored vectors by squared L2 distance,
// closest first, ties broken by insertion order. An empty index returns an
// empty result, not an error. A query of the wrong dimension is a
// configuration error: answering it would produce arbitrary neighbors.
func (ix *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if ix.Len() == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query dimension %d does not match index dimension %d", ErrConfig, len(query), ix.dim)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", ErrConfig, k)
	}

	neighbors := make([]Neighbor, len(ix.vectors))
	for i, v := range ix.vectors {
		neighbors[i] = Neighbor{Position: i, Distance: squaredL2(query, v)}
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Distance != neighbors[j].Distance {
			return neighbors[i].Distance < neighbors[j].Distance
		}
		return neighbors[i].Position < neighbors[j].Position
	})

	if k > len(neighbors) {
		k = len(neighbors)
	}
	return neighbors[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(sum)
}
