// Package memtide wires the memory store, document corpus, retrieval
// engine and generation client into one runtime an application embeds.
package memtide

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/memtide/memtide/config"
	"github.com/memtide/memtide/embedding"
	"github.com/memtide/memtide/errors"
	"github.com/memtide/memtide/internal/mylog"
	"github.com/memtide/memtide/knowledge"
	"github.com/memtide/memtide/llm"
	"github.com/memtide/memtide/memory"
	"github.com/memtide/memtide/rag"
	"github.com/memtide/memtide/tool"
	"github.com/memtide/memtide/vector"
)

type (
	Runtime struct {
		conf     *config.Config
		logger   *slog.Logger
		embedder embedding.Embedder
		client   llm.Client
		reranker rag.Reranker

		store          *memory.Store
		knowledge      *knowledge.Service
		knowledgeIndex vector.Index
		engine         *rag.Engine
		tools          *tool.Registry
	}

	Option func(*Runtime)
)

func WithConfig(conf *config.Config) Option {
	return func(r *Runtime) { r.conf = conf }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// WithClient substitutes the generation client, bypassing the provider
// selection in the model config.
func WithClient(client llm.Client) Option {
	return func(r *Runtime) { r.client = client }
}

// WithEmbedder substitutes the embedder for both memory and knowledge.
func WithEmbedder(embedder embedding.Embedder) Option {
	return func(r *Runtime) { r.embedder = embedder }
}

// WithReranker substitutes the reranking stage used when reranking is
// enabled in the RAG config.
func WithReranker(reranker rag.Reranker) Option {
	return func(r *Runtime) { r.reranker = reranker }
}

// NewRuntime assembles the full pipeline from config. With a sqlite path
// configured, sessions and the long-term tier are durable and the knowledge
// index lives in sqlite-vec; otherwise everything is in memory.
func NewRuntime(ctx context.Context, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		conf: config.New(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = mylog.NewLogger(r.conf.Log.LogLevel, r.conf.Log.LogHandler)
	}

	if r.embedder == nil {
		embedder, err := newEmbedder(r.conf.Model)
		if err != nil {
			return nil, err
		}
		r.embedder = embedder
	}

	if r.client == nil {
		client, err := llm.NewClient(r.conf.Model)
		if err != nil {
			return nil, err
		}
		r.client = client
	}

	var storeOpts []memory.StoreOption
	knowledgeIndex := vector.Index(vector.NewMemoryIndex())
	if path := r.conf.Memory.SqlitePath; path != "" {
		persister, err := memory.NewSqlitePersister(path)
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, memory.WithPersister(persister))

		knowledgeIndex, err = vector.NewSqliteIndex(filepath.Join(filepath.Dir(path), "knowledge.db"), r.embedder.Dim())
		if err != nil {
			return nil, err
		}
	}

	store, err := memory.NewStore(ctx, r.conf.Memory, r.logger, r.embedder, vector.NewMemoryIndex(), storeOpts...)
	if err != nil {
		return nil, err
	}
	r.store = store
	r.knowledgeIndex = knowledgeIndex
	r.knowledge = knowledge.NewService(r.conf.Knowledge, r.logger, r.embedder, knowledgeIndex)

	var engineOpts []rag.EngineOption
	if r.reranker == nil && r.conf.RAG.RerankEnabled {
		r.reranker = rag.NewTokenOverlapReranker()
	}
	if r.reranker != nil {
		engineOpts = append(engineOpts, rag.WithReranker(r.reranker))
	}
	r.engine = rag.NewEngine(r.conf.RAG, r.logger, r.knowledge, r.client, engineOpts...)

	r.tools = tool.NewRegistry(r.logger)
	if err := tool.RegisterMemoryTools(r.tools, r.store); err != nil {
		return nil, err
	}
	if err := tool.RegisterKnowledgeTools(r.tools, r.knowledge); err != nil {
		return nil, err
	}

	return r, nil
}

func newEmbedder(conf *config.ModelConfig) (embedding.Embedder, error) {
	switch conf.EmbeddingProvider {
	case "hash", "":
		return embedding.NewHashEmbedder(conf.EmbeddingDim), nil
	case "openai":
		return embedding.NewOpenAIEmbedder(conf.EmbeddingBaseURL, "", conf.EmbeddingModel, conf.EmbeddingDim), nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "unknown embedding provider %q", conf.EmbeddingProvider)
	}
}

// Ask answers a question over the corpus within a session: the question is
// recorded as a task event, the retrieval pipeline runs, and a successful
// answer is recorded as an answer event carrying the confidence. Pipeline
// failures come back inside the Result; only memory errors are returned.
func (r *Runtime) Ask(ctx context.Context, sessionID, question string) (*rag.Result, error) {
	if _, err := r.store.Record(ctx, sessionID, memory.KindTask, question, nil); err != nil && !errors.Is(err, errors.ErrIOFailure) {
		return nil, err
	}

	result := r.engine.Query(ctx, question)

	if result.State == rag.StateAnswered {
		evtContext := map[string]any{"confidence": result.Confidence}
		if _, err := r.store.Record(ctx, sessionID, memory.KindAnswer, result.Answer, evtContext); err != nil && !errors.Is(err, errors.ErrIOFailure) {
			return nil, err
		}
	}

	return result, nil
}

// WorkingContext builds the view an agent works from: the most recent
// short-term events of the session plus long-term recalls relevant to the
// query.
func (r *Runtime) WorkingContext(ctx context.Context, sessionID, query string, maxEvents, maxRecalls int) ([]*memory.Event, []memory.ScoredEvent, error) {
	recent := r.store.GetContext(sessionID, maxEvents)

	var recalls []memory.ScoredEvent
	if query != "" && maxRecalls > 0 {
		found, err := r.store.Search(ctx, query, memory.ModeHybrid, maxRecalls)
		if err != nil {
			return nil, nil, err
		}
		recalls = found
	}
	return recent, recalls, nil
}

func (r *Runtime) Store() *memory.Store {
	return r.store
}

func (r *Runtime) Knowledge() *knowledge.Service {
	return r.knowledge
}

func (r *Runtime) Engine() *rag.Engine {
	return r.engine
}

func (r *Runtime) Tools() *tool.Registry {
	return r.tools
}

func (r *Runtime) Close() error {
	err := r.store.Close()
	if closer, ok := r.knowledgeIndex.(io.Closer); ok {
		if cerr := closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
