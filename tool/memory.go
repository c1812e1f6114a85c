package tool

import (
	"context"

	"github.com/memtide/memtide/memory"
	"github.com/mokiat/gog"
)

// RegisterMemoryTools wires the memory store's operations into the
// registry.
func RegisterMemoryTools(r *Registry, store *memory.Store) error {
	if err := registerTool(
		r,
		"remember",
		`Record an event in session memory. Important events (tasks, answers, corrections) are automatically promoted to long-term memory and become searchable across sessions.`,
		func(ctx context.Context, req struct {
			SessionID string         `json:"session_id" jsonschema:"required,description=Session to record into"`
			Kind      string         `json:"kind" jsonschema:"required,description=Event kind: task | thought | action | observation | answer"`
			Content   string         `json:"content" jsonschema:"required,description=What happened, as plain text"`
			Context   map[string]any `json:"context,omitempty" jsonschema:"description=Optional structured context; set correction=true to boost importance"`
		}) (resp struct {
			Event *memory.Event `json:"event,omitempty" jsonschema:"description=The recorded event with its assigned importance"`
			Error *string       `json:"error,omitempty" jsonschema:"description=Error message if recording failed"`
		}, globalErr error) {
			kind, err := memory.ParseEventKind(req.Kind)
			if err != nil {
				resp.Error = gog.PtrOf(err.Error())
				return
			}
			event, err := store.Record(ctx, req.SessionID, kind, req.Content, req.Context)
			if err != nil {
				resp.Error = gog.PtrOf(err.Error())
			}
			resp.Event = event
			return
		},
	); err != nil {
		return err
	}

	if err := registerTool(
		r,
		"memory_search",
		`Search long-term memory by keyword, semantic similarity or both. Returns promoted events ranked by relevance.`,
		func(ctx context.Context, req struct {
			Query string `json:"query" jsonschema:"required,description=Search query"`
			Mode  string `json:"mode,omitempty" jsonschema:"description=Search mode: keyword | semantic | hybrid,default=hybrid"`
			Limit *int   `json:"limit,omitempty" jsonschema:"description=Maximum results,default=5"`
		}) (resp struct {
			Results []memory.ScoredEvent `json:"results" jsonschema:"description=Matching events ranked by score"`
			Error   *string              `json:"error,omitempty" jsonschema:"description=Error message if the search failed"`
		}, globalErr error) {
			mode := memory.ModeHybrid
			if req.Mode != "" {
				parsed, err := memory.ParseSearchMode(req.Mode)
				if err != nil {
					resp.Error = gog.PtrOf(err.Error())
					return
				}
				mode = parsed
			}
			limit := 5
			if req.Limit != nil && *req.Limit > 0 {
				limit = *req.Limit
			}
			results, err := store.Search(ctx, req.Query, mode, limit)
			if err != nil {
				resp.Error = gog.PtrOf(err.Error())
				return
			}
			resp.Results = results
			return
		},
	); err != nil {
		return err
	}

	return registerTool(
		r,
		"memory_stats",
		`Summarize a session: event counts by kind, mean importance, duration and the current long-term tier size.`,
		func(ctx context.Context, req struct {
			SessionID string `json:"session_id" jsonschema:"required,description=Session to summarize"`
		}) (memory.Stats, error) {
			return store.Stats(req.SessionID), nil
		},
	)
}
