package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/memtide/memtide/errors"
	"github.com/memtide/memtide/internal/stringslices"
)

var textExtensions = []string{".txt", ".md", ".markdown"}

// FileLoader turns text and markdown files into chunked documents.
type FileLoader struct {
	chunker *Chunker
}

func NewFileLoader(chunker *Chunker) *FileLoader {
	return &FileLoader{chunker: chunker}
}

// LoadFile reads one file into a document, chunked by the loader's
// chunker. The file's base name becomes the title.
func (l *FileLoader) LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrIOFailure, "failed to read %s: %v", path, err)
	}

	doc := &Document{
		ID: newDocumentID(),
		Source: Source{
			Title: filepath.Base(path),
			Path:  path,
			Type:  SourceTypeText,
		},
	}
	for i, text := range l.chunker.Split(string(data)) {
		doc.Chunks = append(doc.Chunks, &Chunk{
			ID:         fmt.Sprintf("%s/%d", doc.ID, i),
			DocumentID: doc.ID,
			Seq:        i,
			Text:       text,
			Metadata: map[string]any{
				"path": path,
			},
		})
	}

	return doc, nil
}

// LoadDirectory loads every .txt and .md file directly under dir, sorted
// by name. Cancellation is checked between files so a large directory
// stops promptly; documents loaded before the cancel are returned with the
// error.
func (l *FileLoader) LoadDirectory(ctx context.Context, dir string) ([]*Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrIOFailure, "failed to read directory %s: %v", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []*Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !stringslices.ContainsIgnoreCase(textExtensions, filepath.Ext(entry.Name())) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return docs, errors.Wrapf(err, "directory load cancelled at %s", entry.Name())
		}

		doc, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return docs, err
		}
		docs = append(docs, doc)
	}

	return docs, nil
}
