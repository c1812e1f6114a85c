package tool

import (
	"context"

	"github.com/memtide/memtide/knowledge"
	"github.com/mokiat/gog"
)

// RegisterKnowledgeTools wires corpus retrieval into the registry.
func RegisterKnowledgeTools(r *Registry, svc *knowledge.Service) error {
	return registerTool(
		r,
		"knowledge_search",
		`Search the indexed document corpus by semantic similarity and return the most relevant chunks.`,
		func(ctx context.Context, req struct {
			Query string `json:"query" jsonschema:"required,description=The search query to find relevant information"`
			Limit *int   `json:"limit,omitempty" jsonschema:"description=The maximum number of results to return,default=5"`
		}) (resp struct {
			Results []knowledge.SearchResult `json:"results,omitempty" jsonschema:"description=Matching chunks ranked by similarity"`
			Error   *string                  `json:"error,omitempty" jsonschema:"description=Error message if the search failed"`
		}, globalErr error) {
			limit := 5
			if req.Limit != nil && *req.Limit > 0 {
				limit = *req.Limit
			}
			results, err := svc.Retrieve(ctx, req.Query, limit)
			if err != nil {
				resp.Error = gog.PtrOf(err.Error())
				return
			}
			resp.Results = results
			return
		},
	)
}
