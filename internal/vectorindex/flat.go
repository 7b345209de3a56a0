// Package vectorindex provides an in-memory exact nearest-neighbor index.
//
// The index is append-only: rows are never updated or removed, and a
// compaction pass would have to rebuild the whole structure. Re-ingesting a
// changed document therefore grows the index instead of replacing rows.
package vectorindex

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"docchat/internal/domain"
)

var (
	// ErrEmptyIndex reports a search before any vectors were added.
	ErrEmptyIndex = errors.New("vectorindex: no vectors indexed")
	// ErrDimensionMismatch reports a vector whose length disagrees with the
	// dimension fixed by the first insertion.
	ErrDimensionMismatch = errors.New("vectorindex: vector dimension mismatch")
	// ErrCountMismatch reports an add where vectors and records disagree in
	// length. This is a caller bug, not a data problem.
	ErrCountMismatch = errors.New("vectorindex: vectors and records count mismatch")
)

// Flat stores vectors in a dim-strided float32 arena with a parallel record
// slice: row i of the arena belongs to records[i], always. Search is an
// exact squared-L2 scan over every row, which is fine for in-process
// document corpora; anything larger should swap in an ANN structure behind
// the same contract.
//
// Flat is safe for concurrent use. Adds are serialized; searches run in
// parallel with each other but never against a half-appended state.
type Flat struct {
	mu      sync.RWMutex
	dim     int
	data    []float32
	records []domain.Record
}

// NewFlat returns an empty index. The dimension is fixed by the first Add.
func NewFlat() *Flat { return &Flat{} }

// Add appends vectors and their records to the index. The first call fixes
// the index dimension. All rows are validated before anything is appended,
// so a failed Add never leaves a partial batch behind.
func (f *Flat) Add(vectors [][]float32, records []domain.Record) error {
	if len(vectors) != len(records) {
		return fmt.Errorf("%w: %d vectors, %d records", ErrCountMismatch, len(vectors), len(records))
	}
	if len(vectors) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	dim := f.dim
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("%w: zero-length vector", ErrDimensionMismatch)
		}
	}
	for _, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(v), dim)
		}
	}
	f.dim = dim
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	f.records = append(f.records, records...)
	return nil
}

// Search returns the k stored rows closest to query in ascending
// squared-Euclidean distance, at most min(k, Len()) of them.
func (f *Flat) Search(query []float32, k int) ([]domain.Hit, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := len(f.records)
	if n == 0 {
		return nil, ErrEmptyIndex
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d", ErrDimensionMismatch, len(query), f.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	dists := make([]float32, n)
	for i := 0; i < n; i++ {
		row := f.data[i*f.dim : (i+1)*f.dim]
		var sum float32
		for j, q := range query {
			d := row[j] - q
			sum += d * d
		}
		dists[i] = sum
	}
	idxs := make([]int, n)
	for i := range idxs {
		idxs[i] = i
	}
	sort.Slice(idxs, func(a, b int) bool { return dists[idxs[a]] < dists[idxs[b]] })
	if k > n {
		k = n
	}
	hits := make([]domain.Hit, k)
	for i := 0; i < k; i++ {
		hits[i] = domain.Hit{Distance: dists[idxs[i]], Record: f.records[idxs[i]]}
	}
	return hits, nil
}

// Len returns the number of stored rows.
func (f *Flat) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.records)
}

// Dimension returns the fixed vector dimension, or 0 before the first Add.
func (f *Flat) Dimension() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dim
}
