package knowledge

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/memtide/memtide/errors"
)

// LoadPDF extracts text from a PDF page by page, one chunk per page, with
// the page number in the chunk metadata. Cancellation is checked between
// pages.
func LoadPDF(ctx context.Context, title string, input io.Reader) (*Document, error) {
	data, err := io.ReadAll(input)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrIOFailure, "failed to read PDF data: %v", err)
	}

	pdf, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open PDF")
	}
	defer pdf.Close()

	meta := pdf.Metadata()
	if title == "" {
		title = meta["title"]
	}

	doc := &Document{
		ID: newDocumentID(),
		Source: Source{
			Title: title,
			Type:  SourceTypePDF,
		},
		Metadata: map[string]any{
			"author":  meta["author"],
			"subject": meta["subject"],
		},
	}

	pageCount := pdf.NumPage()
	for page := 0; page < pageCount; page++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "PDF load cancelled at page %d", page+1)
		}

		text, err := pdf.Text(page)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to extract text from page %d", page+1)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		doc.Chunks = append(doc.Chunks, &Chunk{
			ID:         fmt.Sprintf("%s/%d", doc.ID, len(doc.Chunks)),
			DocumentID: doc.ID,
			Seq:        len(doc.Chunks),
			Text:       text,
			Metadata: map[string]any{
				"page_number": page + 1,
				"total_pages": pageCount,
			},
		})
	}

	if len(doc.Chunks) == 0 {
		return nil, errors.Errorf("no extractable text in PDF %q", title)
	}

	return doc, nil
}
