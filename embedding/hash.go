package embedding

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/memtide/memtide/internal/stringslices"
)

const DefaultHashDim = 256

// HashEmbedder maps text to a hashed bag-of-words vector: each token is
// hashed into one of Dim buckets and counted, then the vector is
// L2-normalized. It is deterministic, stateless and needs no network, which
// makes it the default embedder and the one used in tests. Dense model
// embeddings are a drop-in replacement behind the same interface.
type HashEmbedder struct {
	dim int
}

var _ Embedder = (*HashEmbedder)(nil)

func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultHashDim
	}
	return &HashEmbedder{dim: dim}
}

func (e *HashEmbedder) Embed(_ context.Context, texts ...string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = e.embedOne(text)
	}
	return vectors, nil
}

func (e *HashEmbedder) embedOne(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, token := range stringslices.Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[h.Sum32()%uint32(e.dim)]++
	}
	return l2Normalize(vec)
}

func (e *HashEmbedder) Dim() int { return e.dim }

func l2Normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
