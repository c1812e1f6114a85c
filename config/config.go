package config

import (
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/memtide/memtide/errors"
)

type Config struct {
	Log       *LogConfig       `json:"log,omitempty" yaml:"log"`
	Memory    *MemoryConfig    `json:"memory,omitempty" yaml:"memory"`
	RAG       *RAGConfig       `json:"rag,omitempty" yaml:"rag"`
	Knowledge *KnowledgeConfig `json:"knowledge,omitempty" yaml:"knowledge"`
	Model     *ModelConfig     `json:"model,omitempty" yaml:"model"`
}

func New() *Config {
	return &Config{
		Log:       NewLogConfig(),
		Memory:    NewMemoryConfig(),
		RAG:       NewRAGConfig(),
		Knowledge: NewKnowledgeConfig(),
		Model:     NewModelConfig(),
	}
}

// Load builds a Config from defaults, an optional YAML file and finally
// environment overrides, in that order of precedence.
func Load(path string) (*Config, error) {
	conf := New()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read config file: %s", path)
		}
		if err := yaml.Unmarshal(data, conf); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal config file: %s", path)
		}
	}

	conf.applyEnv()

	return conf, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MEMTIDE_LOG_LEVEL"); v != "" {
		c.Log.LogLevel = v
	}
	if v := os.Getenv("MEMTIDE_LOG_HANDLER"); v != "" {
		c.Log.LogHandler = v
	}
	if v := os.Getenv("MEMTIDE_SQLITE_PATH"); v != "" {
		c.Memory.SqlitePath = v
	}
	if v := os.Getenv("MEMTIDE_MODEL_PROVIDER"); v != "" {
		c.Model.Provider = v
	}
	if v := os.Getenv("MEMTIDE_GENERATION_MODEL"); v != "" {
		c.Model.GenerationModel = v
	}
	if v := os.Getenv("MEMTIDE_EMBEDDING_PROVIDER"); v != "" {
		c.Model.EmbeddingProvider = v
	}
	if v := os.Getenv("MEMTIDE_LONG_TERM_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Memory.LongTermCapacity = n
		}
	}
}
