package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/memtide/memtide/errors"
	"gonum.org/v1/gonum/mat"
)

type (
	entry struct {
		id       string
		text     string
		vec      []float32
		norm     float64
		metadata map[string]any
	}

	// MemoryIndex is the in-memory linear-scan implementation. The entries
	// slice stays in insertion order so that equal scores resolve to the
	// earliest insertion; an upsert replaces the entry in place.
	MemoryIndex struct {
		mu      sync.RWMutex
		entries []*entry
		byID    map[string]int
	}
)

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID: make(map[string]int),
	}
}

func (i *MemoryIndex) Upsert(_ context.Context, id, text string, vec []float32, metadata map[string]any) error {
	if id == "" {
		return errors.Wrapf(errors.ErrInvalidArgument, "entry id is empty")
	}
	if len(vec) == 0 {
		return errors.Wrapf(errors.ErrInvalidArgument, "entry vector is empty")
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.entries) > 0 && len(i.entries[0].vec) != len(vec) {
		return errors.Errorf("vector dimension mismatch: index has %d, got %d", len(i.entries[0].vec), len(vec))
	}

	e := &entry{
		id:       id,
		text:     text,
		vec:      vec,
		norm:     l2Norm(vec),
		metadata: metadata,
	}

	if pos, ok := i.byID[id]; ok {
		i.entries[pos] = e
		return nil
	}

	i.byID[id] = len(i.entries)
	i.entries = append(i.entries, e)
	return nil
}

// Delete removes the entry with the given id. Deleting an absent id is a
// no-op, not an error.
func (i *MemoryIndex) Delete(_ context.Context, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	pos, ok := i.byID[id]
	if !ok {
		return nil
	}

	i.entries = append(i.entries[:pos], i.entries[pos+1:]...)
	delete(i.byID, id)
	for j := pos; j < len(i.entries); j++ {
		i.byID[i.entries[j].id] = j
	}
	return nil
}

func (i *MemoryIndex) Query(_ context.Context, vec []float32, k int, filter map[string]any) ([]Hit, error) {
	if k <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "k must be positive, got %d", k)
	}
	if len(vec) == 0 {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "query vector is empty")
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	// Filter before scoring so highly selective filters keep the matrix
	// multiply small.
	candidates := make([]*entry, 0, len(i.entries))
	for _, e := range i.entries {
		if len(e.vec) != len(vec) {
			continue
		}
		if len(filter) > 0 && !matchFilter(e.metadata, filter) {
			continue
		}
		candidates = append(candidates, e)
	}

	if len(candidates) == 0 {
		return []Hit{}, nil
	}

	scores := scoreCosine(candidates, vec)

	hits := make([]Hit, len(candidates))
	for j, e := range candidates {
		hits[j] = Hit{
			ID:       e.id,
			Text:     e.text,
			Metadata: e.metadata,
			Score:    scores[j],
		}
	}

	// Candidates are already in insertion order, so a stable sort leaves
	// equal scores resolved earliest-first.
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (i *MemoryIndex) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries), nil
}

func (i *MemoryIndex) Clear(_ context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entries = nil
	i.byID = make(map[string]int)
	return nil
}

// scoreCosine computes cosine similarity between the query and every
// candidate with one matrix-vector multiply.
func scoreCosine(candidates []*entry, vec []float32) []float64 {
	dim := len(vec)
	queryVec := make([]float64, dim)
	for j, v := range vec {
		queryVec[j] = float64(v)
	}
	queryNorm := mat.Norm(mat.NewVecDense(dim, queryVec), 2)

	data := make([]float64, len(candidates)*dim)
	for r, e := range candidates {
		for c, v := range e.vec {
			data[r*dim+c] = float64(v)
		}
	}

	var dots mat.VecDense
	dots.MulVec(mat.NewDense(len(candidates), dim, data), mat.NewVecDense(dim, queryVec))

	scores := make([]float64, len(candidates))
	for j, e := range candidates {
		if queryNorm == 0 || e.norm == 0 {
			scores[j] = 0
			continue
		}
		scores[j] = dots.AtVec(j) / (queryNorm * e.norm)
	}
	return scores
}

func l2Norm(vec []float32) float64 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
