package llm

import (
	"context"
	"strings"
)

// StaticClient answers deterministically without any network call, which
// makes it the offline/test provider. It echoes the last non-empty prompt
// line behind a fixed prefix.
type StaticClient struct {
	prefix string
}

var _ Client = (*StaticClient)(nil)

func NewStaticClient(prefix string) *StaticClient {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Based on the provided context:"
	}
	return &StaticClient{prefix: prefix}
}

func (c *StaticClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrapGenerateErr(ctx, err)
	}

	lines := strings.Split(req.Prompt, "\n")
	last := "<empty prompt>"
	for i := len(lines) - 1; i >= 0; i-- {
		if candidate := strings.TrimSpace(lines[i]); candidate != "" {
			last = candidate
			break
		}
	}
	return c.prefix + " " + last, nil
}
