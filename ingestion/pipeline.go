package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/grounder/ai"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/match"
	"github.com/poiesic/grounder/storage"
)

// Pipeline orchestrates the ingestion and processing of chunks.
// It manages concurrent embedding generation and anchor tagging.
type Pipeline struct {
	chunkRepository  storage.ChunkRepository
	anchorRepository storage.AnchorRepository
	embeddingPool    *ants.Pool
	taggingPool      *ants.Pool
	embeddingProc    processor
	taggingProc      processor
	matcher          *match.Matcher
	logger           *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent processing.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		// Release old pools
		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		if p.taggingPool != nil {
			p.taggingPool.Release()
		}

		embeddingPool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		taggingPool, err := ants.NewPool(size)
		if err != nil {
			embeddingPool.Release()
			return err
		}

		p.embeddingPool = embeddingPool
		p.taggingPool = taggingPool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMatcher sets a custom anchor matcher for the tagging pass.
func WithMatcher(matcher *match.Matcher) Option {
	return func(p *Pipeline) error {
		if matcher != nil {
			p.matcher = matcher
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	chunkRepository storage.ChunkRepository,
	anchorRepository storage.AnchorRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if anchorRepository == nil {
		return nil, ErrAnchorRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	logger := slog.Default()

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	taggingPool, err := ants.NewPool(poolSize)
	if err != nil {
		embeddingPool.Release()
		return nil, err
	}

	// Create pipeline with defaults
	p := &Pipeline{
		chunkRepository:  chunkRepository,
		anchorRepository: anchorRepository,
		embeddingPool:    embeddingPool,
		taggingPool:      taggingPool,
		matcher:          match.NewMatcher(),
		logger:           logger,
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create processors after options are applied (so they get final config)
	embeddingProc, err := newEmbeddingProcessor(chunkRepository, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	taggingProc, err := newTaggingProcessor(chunkRepository, anchorRepository, p.matcher, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}

	p.embeddingProc = embeddingProc
	p.taggingProc = taggingProc

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	ProjectId   core.ID // Optional scope
	AssistantId string  // Optional scope

	// MarkOpeningLine flags the first chunk of the batch as literal-recall
	// content eligible for force-inclusion
	MarkOpeningLine bool
}

// Ingest adds texts as chunks of a document and processes them
// asynchronously. Intra-batch duplicates (by normalized-text
// fingerprint) are dropped before storage. Processing includes
// generating embeddings and tagging against the anchor registry.
// Errors during async processing are logged but do not fail the ingestion.
func (p *Pipeline) Ingest(ctx context.Context, documentId core.ID, texts []string, opts *IngestOptions) ([]*core.Chunk, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	// Build chunks, dropping intra-batch duplicates
	seen := make(map[uint64]bool, len(texts))
	chunks := make([]*core.Chunk, 0, len(texts))
	for i, text := range texts {
		fingerprint := core.FingerprintText(text)
		if seen[fingerprint] {
			p.logger.Debug("dropping duplicate chunk", "documentId", documentId, "fingerprint", fingerprint)
			continue
		}
		seen[fingerprint] = true

		chunks = append(chunks, &core.Chunk{
			DocumentId:     documentId,
			ProjectId:      opts.ProjectId,
			AssistantId:    opts.AssistantId,
			Text:           text,
			Fingerprint:    fingerprint,
			HasOpeningLine: opts.MarkOpeningLine && i == 0,
		})
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	added, err := p.chunkRepository.AddChunks(ctx, chunks...)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ID, len(added))
	for i, chunk := range added {
		ids[i] = chunk.Id
	}

	// Submit for async processing
	p.embeddingPool.Submit(func() {
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error processing embeddings", "err", err)
		}
	})

	p.taggingPool.Submit(func() {
		if err := p.taggingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error tagging chunks", "err", err)
		}
	})

	return added, nil
}

// Retag re-runs the anchor matching pass synchronously over the given
// chunks. Used after the registry changes, e.g. an applied mutation.
func (p *Pipeline) Retag(ctx context.Context, ids ...core.ID) error {
	return p.taggingProc.process(ctx, ids...)
}

// PromoteFrequentTerms registers high-frequency tokens from the given
// texts as memory-token anchors. Terms already present in the registry
// are left untouched. Returns the slugs of newly created anchors.
func (p *Pipeline) PromoteFrequentTerms(ctx context.Context, texts []string, minCount int) ([]string, error) {
	terms := match.FrequentTerms(texts, minCount)
	if len(terms) == 0 {
		return nil, nil
	}

	var created []string
	for _, term := range terms {
		// Tokens are already lowercase alphanumeric, so term doubles as slug
		slug := term
		_, err := p.anchorRepository.GetAnchor(ctx, slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return created, err
		}

		_, err = p.anchorRepository.PutAnchor(ctx, &core.Anchor{
			Slug:   slug,
			Label:  term,
			Origin: core.OriginMemoryToken,
		})
		if err != nil {
			return created, err
		}
		created = append(created, slug)
		p.logger.Info("promoted memory token to anchor", "slug", slug)
	}
	return created, nil
}

// Release releases resources including worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
	if p.taggingPool != nil {
		p.taggingPool.Release()
	}
}
