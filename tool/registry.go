// Package tool exposes the memory and knowledge operations as schema-typed
// tools an agent loop or REPL can call by name with loosely-typed
// arguments.
package tool

import (
	"context"
	"log/slog"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/memtide/memtide/errors"
	"github.com/mitchellh/mapstructure"
)

type (
	Tool struct {
		Name        string             `json:"name"`
		Description string             `json:"description"`
		InputSchema *jsonschema.Schema `json:"input_schema"`

		call func(ctx context.Context, args map[string]any) (any, error)
	}

	Registry struct {
		mu     sync.RWMutex
		logger *slog.Logger
		tools  map[string]*Tool
		order  []string
	}
)

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		tools:  make(map[string]*Tool),
	}
}

// registerTool adds a typed tool. The input schema is reflected from In;
// call arguments are decoded into In by json tag name.
func registerTool[In any, Out any](r *Registry, name, description string, fn func(ctx context.Context, input In) (Out, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return errors.Errorf("tool %s already registered", name)
	}

	reflector := jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}

	r.tools[name] = &Tool{
		Name:        name,
		Description: description,
		InputSchema: reflector.Reflect(new(In)),
		call: func(ctx context.Context, args map[string]any) (any, error) {
			var input In
			decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
				TagName:          "json",
				Result:           &input,
				WeaklyTypedInput: true,
			})
			if err != nil {
				return nil, errors.Wrapf(err, "failed to build argument decoder")
			}
			if err := decoder.Decode(args); err != nil {
				return nil, errors.Wrapf(errors.ErrInvalidArgument, "invalid arguments for %s: %v", name, err)
			}
			return fn(ctx, input)
		},
	}
	r.order = append(r.order, name)
	return nil
}

// Get returns a registered tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Call invokes a tool by name with loosely-typed arguments.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "tool %s", name)
	}

	out, err := t.call(ctx, args)
	if err != nil {
		r.logger.Debug("tool call failed", slog.String("tool", name), slog.Any("error", err))
		return nil, err
	}
	return out, nil
}
