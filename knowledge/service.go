package knowledge

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/memtide/memtide/config"
	"github.com/memtide/memtide/embedding"
	"github.com/memtide/memtide/errors"
	"github.com/memtide/memtide/vector"
	"github.com/mokiat/gog"
	"github.com/samber/lo"
)

// Service owns the document corpus and its namespace of the vector index.
// Indexing a document embeds every chunk in one batch and upserts them
// keyed by chunk id; retrieval embeds the query and ranks chunks by cosine
// similarity.
type Service struct {
	mu sync.RWMutex

	conf     *config.KnowledgeConfig
	logger   *slog.Logger
	embedder embedding.Embedder
	index    vector.Index

	loader *FileLoader
	docs   map[string]*Document
	chunks map[string]*Chunk
}

func NewService(conf *config.KnowledgeConfig, logger *slog.Logger, embedder embedding.Embedder, index vector.Index) *Service {
	if conf == nil {
		conf = config.NewKnowledgeConfig()
	}
	return &Service{
		conf:     conf,
		logger:   logger,
		embedder: embedder,
		index:    index,
		loader:   NewFileLoader(NewChunker(conf)),
		docs:     make(map[string]*Document),
		chunks:   make(map[string]*Chunk),
	}
}

// Index embeds and stores every chunk of the document. Re-indexing a
// document id replaces its previous chunks.
func (s *Service) Index(ctx context.Context, doc *Document) error {
	if doc == nil || len(doc.Chunks) == 0 {
		return errors.Wrapf(errors.ErrInvalidArgument, "document has no chunks")
	}

	texts := gog.Map(doc.Chunks, func(c *Chunk) string { return c.Text })
	vecs, err := s.embedder.Embed(ctx, texts...)
	if err != nil {
		return errors.Wrapf(err, "failed to embed document %s", doc.ID)
	}
	if len(vecs) != len(doc.Chunks) {
		return errors.Errorf("embedding count mismatch: got %d, expected %d", len(vecs), len(doc.Chunks))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.docs[doc.ID]; ok {
		if err := s.removeLocked(ctx, prev); err != nil {
			return err
		}
	}

	for i, chunk := range doc.Chunks {
		chunk.Metadata = gog.Merge(chunk.Metadata, map[string]any{
			"document_id": doc.ID,
			"seq":         chunk.Seq,
		})
		if err := s.index.Upsert(ctx, chunk.ID, chunk.Text, vecs[i], chunk.Metadata); err != nil {
			return errors.Wrapf(err, "failed to index chunk %s", chunk.ID)
		}
		s.chunks[chunk.ID] = chunk
	}
	s.docs[doc.ID] = doc

	s.logger.Debug("indexed document",
		slog.String("id", doc.ID),
		slog.String("title", doc.Source.Title),
		slog.Int("chunks", len(doc.Chunks)))
	return nil
}

// IndexMaps indexes free-form knowledge maps as one document.
func (s *Service) IndexMaps(ctx context.Context, title string, items []map[string]any) (*Document, error) {
	doc := DocumentFromMaps(title, items)
	if err := s.Index(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// IndexFile loads and indexes one text or markdown file.
func (s *Service) IndexFile(ctx context.Context, path string) (*Document, error) {
	doc, err := s.loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.Index(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// IndexDirectory loads and indexes every text and markdown file directly
// under dir. Documents indexed before a cancellation stay indexed.
func (s *Service) IndexDirectory(ctx context.Context, dir string) ([]*Document, error) {
	docs, err := s.loader.LoadDirectory(ctx, dir)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if err := s.Index(ctx, doc); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// IndexPDF extracts, chunks and indexes a PDF, one chunk per page.
func (s *Service) IndexPDF(ctx context.Context, title string, input io.Reader) (*Document, error) {
	doc, err := LoadPDF(ctx, title, input)
	if err != nil {
		return nil, err
	}
	if err := s.Index(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Retrieve returns the k most similar chunks to the query, best first.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "k must be positive, got %d", k)
	}

	vecs, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to embed query")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.index.Query(ctx, vecs[0], k, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query index")
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		chunk, ok := s.chunks[hit.ID]
		if !ok {
			chunk = &Chunk{ID: hit.ID, Text: hit.Text, Metadata: hit.Metadata}
		}
		results = append(results, SearchResult{Chunk: chunk, Score: hit.Score})
	}
	return results, nil
}

// Count reports the number of indexed chunks.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}

// Get returns an indexed document by id.
func (s *Service) Get(id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "document %s", id)
	}
	return doc, nil
}

// List returns all indexed documents sorted by title, then id.
func (s *Service) List() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := lo.Values(s.docs)
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Source.Title != docs[j].Source.Title {
			return docs[i].Source.Title < docs[j].Source.Title
		}
		return docs[i].ID < docs[j].ID
	})
	return docs
}

// Delete removes a document and its chunks from the corpus.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return errors.Wrapf(errors.ErrNotFound, "document %s", id)
	}
	if err := s.removeLocked(ctx, doc); err != nil {
		return err
	}
	delete(s.docs, id)
	return nil
}

// Clear wipes the whole corpus.
func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Clear(ctx); err != nil {
		return errors.Wrapf(err, "failed to clear index")
	}
	s.docs = make(map[string]*Document)
	s.chunks = make(map[string]*Chunk)
	return nil
}

func (s *Service) removeLocked(ctx context.Context, doc *Document) error {
	for _, chunk := range doc.Chunks {
		if err := s.index.Delete(ctx, chunk.ID); err != nil {
			return errors.Wrapf(err, "failed to remove chunk %s", chunk.ID)
		}
		delete(s.chunks, chunk.ID)
	}
	return nil
}
