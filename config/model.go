package config

type ModelConfig struct {
	// Provider selects the generation client: "openai", "anthropic" or
	// "static" (canned answers, useful offline).
	Provider string `json:"provider,omitempty" yaml:"provider"`

	// GenerationModel is the provider model name, e.g. "gpt-4o-mini" or
	// "claude-3-5-haiku-latest".
	GenerationModel string `json:"generationModel,omitempty" yaml:"generationModel"`

	MaxTokens int `json:"maxTokens,omitempty" yaml:"maxTokens"`

	// EmbeddingProvider selects the embedder: "hash" (local, deterministic)
	// or "openai" (any OpenAI-compatible endpoint).
	EmbeddingProvider string `json:"embeddingProvider,omitempty" yaml:"embeddingProvider"`
	EmbeddingModel    string `json:"embeddingModel,omitempty" yaml:"embeddingModel"`
	EmbeddingBaseURL  string `json:"embeddingBaseUrl,omitempty" yaml:"embeddingBaseUrl"`
	EmbeddingDim      int    `json:"embeddingDim,omitempty" yaml:"embeddingDim"`
}

func NewModelConfig() *ModelConfig {
	return &ModelConfig{
		Provider:          "openai",
		GenerationModel:   "gpt-4o-mini",
		MaxTokens:         1024,
		EmbeddingProvider: "hash",
		EmbeddingDim:      256,
	}
}
