// Package llm wraps the generation providers behind a single-method client
// used by the RAG engine and the runtime facade.
package llm

import (
	"context"
	"os"

	"github.com/memtide/memtide/config"
	"github.com/memtide/memtide/errors"
)

type (
	Request struct {
		System    string
		Prompt    string
		MaxTokens int
	}

	// Client is the generation collaborator. Generate returns the model's
	// text for a single-turn request. Unreachable providers surface
	// ErrGenerationUnavailable; deadline expiry surfaces
	// ErrGenerationTimeout.
	Client interface {
		Generate(ctx context.Context, req Request) (string, error)
	}
)

// NewClient builds the provider selected in the model config.
func NewClient(conf *config.ModelConfig) (Client, error) {
	if conf == nil {
		conf = config.NewModelConfig()
	}

	switch conf.Provider {
	case "openai":
		return NewOpenAIClient(os.Getenv("OPENAI_API_KEY"), conf.GenerationModel), nil
	case "anthropic":
		return NewAnthropicClient(os.Getenv("ANTHROPIC_API_KEY"), conf.GenerationModel, conf.MaxTokens), nil
	case "static":
		return NewStaticClient(""), nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "unknown model provider %q", conf.Provider)
	}
}

// wrapGenerateErr maps transport failures onto the package sentinels so
// callers can branch on errors.Is without knowing the provider.
func wrapGenerateErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrapf(errors.ErrGenerationTimeout, "generation timed out: %v", err)
	}
	return errors.Wrapf(errors.ErrGenerationUnavailable, "generation failed: %v", err)
}
