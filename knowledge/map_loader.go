package knowledge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mokiat/gog"
)

// DocumentFromMaps builds one document from free-form knowledge maps, one
// chunk per map. Maps with no extractable text are skipped.
func DocumentFromMaps(title string, items []map[string]any) *Document {
	doc := &Document{
		ID: newDocumentID(),
		Source: Source{
			Title: title,
			Type:  SourceTypeMap,
		},
	}

	for _, item := range items {
		text := extractTextFromMap(item)
		if text == "" {
			continue
		}
		doc.Chunks = append(doc.Chunks, &Chunk{
			ID:         fmt.Sprintf("%s/%d", doc.ID, len(doc.Chunks)),
			DocumentID: doc.ID,
			Seq:        len(doc.Chunks),
			Text:       text,
			Metadata:   gog.Merge(map[string]any{}, item),
		})
	}

	return doc
}

// extractTextFromMap pulls searchable text out of a knowledge map, trying
// the conventional text fields first and falling back to every string
// value in key order.
func extractTextFromMap(item map[string]any) string {
	textFields := []string{"content", "description", "title", "summary", "text", "name"}

	var parts []string
	for _, field := range textFields {
		if str, ok := item[field].(string); ok && str != "" {
			parts = append(parts, str)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if str, ok := item[key].(string); ok && str != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", key, str))
		}
	}
	return strings.Join(parts, " ")
}
