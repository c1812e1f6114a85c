package config

type RAGConfig struct {
	// TopK is how many chunks retrieval asks the index for.
	TopK int `json:"topK,omitempty" yaml:"topK"`

	// RelevanceFloor excludes hits scoring below it. Cosine scores are in
	// [-1, 1]; 0 means "keep anything at least orthogonal".
	RelevanceFloor float64 `json:"relevanceFloor,omitempty" yaml:"relevanceFloor"`

	// ContextBudget is the maximum number of characters of retrieved chunk
	// text assembled into the generation prompt. Chunks that would overflow
	// the budget are dropped whole, never truncated.
	ContextBudget int `json:"contextBudget,omitempty" yaml:"contextBudget"`

	// RerankEnabled turns on the reranking stage between retrieval and
	// context assembly.
	RerankEnabled bool `json:"rerankEnabled,omitempty" yaml:"rerankEnabled"`

	// RetrievalFactor over-fetches candidates for the reranker.
	// Actual retrieval count = TopK * RetrievalFactor when reranking.
	RetrievalFactor int `json:"retrievalFactor,omitempty" yaml:"retrievalFactor"`
}

func NewRAGConfig() *RAGConfig {
	return &RAGConfig{
		TopK:            5,
		RelevanceFloor:  0.0,
		ContextBudget:   4000,
		RerankEnabled:   false,
		RetrievalFactor: 3,
	}
}
