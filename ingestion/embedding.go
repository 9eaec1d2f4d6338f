package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/grounder/ai"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/rank"
	"github.com/poiesic/grounder/storage"
)

// embeddingProcessor generates embeddings for chunks.
// Vectors are normalized to unit length so cosine similarity reduces to
// a dot product downstream.
type embeddingProcessor struct {
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	logger          *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

// newEmbeddingProcessor creates a new embedding processor.
func newEmbeddingProcessor(chunkRepository storage.ChunkRepository, embedder ai.Embedder, logger *slog.Logger) (processor, error) {
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		chunkRepository: chunkRepository,
		embedder:        embedder,
		logger:          logger.With("processor", "embeddings"),
	}, nil
}

// process generates embeddings for the specified chunks.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	ep.logger.Info("processing chunks for embeddings", "chunks", len(ids))

	slices.Sort(ids)

	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		chunk, err := ep.chunkRepository.GetChunk(ctx, id)
		if err != nil {
			ep.logger.Error("error retrieving chunk", "id", id, "err", err)
			return err
		}
		texts = append(texts, chunk.Text)
	}

	ep.logger.Debug("generating embeddings for chunks", "chunks", len(texts))
	embeddings, err := ep.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		ep.logger.Error("error generating embeddings", "err", err)
		return err
	}

	if len(embeddings) != len(ids) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(ids), len(embeddings))
	}

	vectors := make(map[core.ID][]float32, len(ids))
	for i, id := range ids {
		vectors[id] = rank.Normalize(embeddings[i])
	}

	// The tagging pass may have committed anchor fields while the
	// embedding call was in flight. Set the vector on freshly read state
	// so those fields survive.
	_, err = ep.chunkRepository.MutateChunks(ctx, func(chunk *core.Chunk) bool {
		vector, ok := vectors[chunk.Id]
		if !ok {
			return false
		}
		chunk.Vector = vector
		return true
	}, ids...)
	return err
}
