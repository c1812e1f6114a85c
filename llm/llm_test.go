package llm_test

import (
	"context"
	"testing"
	"time"

	"github.com/memtide/memtide/config"
	"github.com/memtide/memtide/errors"
	"github.com/memtide/memtide/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic", "static"} {
		conf := config.NewModelConfig()
		conf.Provider = provider
		client, err := llm.NewClient(conf)
		require.NoError(t, err, "provider %s", provider)
		assert.NotNil(t, client)
	}

	conf := config.NewModelConfig()
	conf.Provider = "carrier-pigeon"
	_, err := llm.NewClient(conf)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestStaticClient_Generate(t *testing.T) {
	client := llm.NewStaticClient("")

	answer, err := client.Generate(t.Context(), llm.Request{
		Prompt: "Context:\nsome retrieved text\n\nQuestion: what is the port?\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "Based on the provided context: Question: what is the port?", answer)

	// Deterministic for identical input.
	again, err := client.Generate(t.Context(), llm.Request{
		Prompt: "Context:\nsome retrieved text\n\nQuestion: what is the port?\n",
	})
	require.NoError(t, err)
	assert.Equal(t, answer, again)
}

func TestStaticClient_EmptyPrompt(t *testing.T) {
	client := llm.NewStaticClient("echo:")

	answer, err := client.Generate(t.Context(), llm.Request{Prompt: "  \n \n"})
	require.NoError(t, err)
	assert.Equal(t, "echo: <empty prompt>", answer)
}

func TestStaticClient_Timeout(t *testing.T) {
	client := llm.NewStaticClient("")

	ctx, cancel := context.WithTimeout(t.Context(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := client.Generate(ctx, llm.Request{Prompt: "anything"})
	assert.ErrorIs(t, err, errors.ErrGenerationTimeout)
}
