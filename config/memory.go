package config

type MemoryConfig struct {
	// SqlitePath is the file path for the sqlite database backing session
	// and long-term persistence. Empty disables durability (memory only).
	SqlitePath string `json:"sqlitePath,omitempty" yaml:"sqlitePath"`

	// PromotionThreshold is the minimum importance an event needs to be
	// copied into the long-term tier.
	PromotionThreshold float64 `json:"promotionThreshold,omitempty" yaml:"promotionThreshold"`

	// LongTermCapacity bounds the long-term tier. Each promotion beyond the
	// bound evicts the lowest-importance entry first.
	LongTermCapacity int `json:"longTermCapacity,omitempty" yaml:"longTermCapacity"`

	// Hybrid search combines keyword and semantic scores as a weighted sum.
	HybridKeywordWeight  float64 `json:"hybridKeywordWeight,omitempty" yaml:"hybridKeywordWeight"`
	HybridSemanticWeight float64 `json:"hybridSemanticWeight,omitempty" yaml:"hybridSemanticWeight"`
}

func NewMemoryConfig() *MemoryConfig {
	return &MemoryConfig{
		SqlitePath:           "",
		PromotionThreshold:   0.5,
		LongTermCapacity:     1024,
		HybridKeywordWeight:  0.5,
		HybridSemanticWeight: 0.5,
	}
}
