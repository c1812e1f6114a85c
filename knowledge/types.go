// Package knowledge loads documents from maps, text files, directories and
// PDFs, splits them into chunks and indexes the chunks for retrieval.
package knowledge

import (
	"github.com/google/uuid"
)

type (
	Document struct {
		ID       string         `json:"id"`
		Source   Source         `json:"source"`
		Metadata map[string]any `json:"metadata,omitempty"`
		Chunks   []*Chunk       `json:"chunks"`
	}

	Source struct {
		Title string     `json:"title,omitempty"`
		Path  string     `json:"path,omitempty"`
		Type  SourceType `json:"type"`
	}

	SourceType string

	// Chunk is the retrieval unit. Seq preserves the chunk's position in
	// the source document.
	Chunk struct {
		ID         string         `json:"id"`
		DocumentID string         `json:"document_id"`
		Seq        int            `json:"seq"`
		Text       string         `json:"text"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}

	SearchResult struct {
		*Chunk `json:",inline"`
		Score  float64 `json:"score"`
	}
)

const (
	SourceTypeMap  SourceType = "map"
	SourceTypeText SourceType = "text"
	SourceTypePDF  SourceType = "pdf"
)

func newDocumentID() string {
	return uuid.NewString()
}
