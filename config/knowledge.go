package config

type KnowledgeConfig struct {
	// Chunk sizes are in characters. Text at or under ChunkMaxSize is kept
	// whole; larger text is split on section boundaries targeting
	// ChunkTargetSize per chunk.
	ChunkTargetSize int `json:"chunkTargetSize,omitempty" yaml:"chunkTargetSize"`
	ChunkMaxSize    int `json:"chunkMaxSize,omitempty" yaml:"chunkMaxSize"`
}

func NewKnowledgeConfig() *KnowledgeConfig {
	return &KnowledgeConfig{
		ChunkTargetSize: 400,
		ChunkMaxSize:    600,
	}
}
