// Package embedding provides pluggable text embedding for the memory and
// document indexes. All embedders attached to one store must produce vectors
// of the same dimensionality.
package embedding

import (
	"context"
)

type Embedder interface {
	Embed(ctx context.Context, texts ...string) ([][]float32, error)
	Dim() int
}
