package badger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/storage"
)

// Enrichment passes racing on the same chunks surface as transaction
// conflicts; mutate runs against freshly read state on every attempt, so
// a bounded retry resolves them.
const mutateRetryLimit = 3

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) (*ChunkRepository, error) {
	idSeq, err := backend.GetSequence(chunkIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChunkRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChunkRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ChunkRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddChunks adds one or more chunks to storage.
func (r *ChunkRepository) AddChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return nil, err
		}
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if chunk.Id == 0 {
				nextID, err := r.idSeq.Next()
				if err != nil {
					return err
				}
				// BadgerDB sequences can return 0 on first call, so we skip it
				if nextID == 0 {
					nextID, err = r.idSeq.Next()
					if err != nil {
						return err
					}
				}
				chunk.Id = core.ID(nextID)
			}

			if chunk.Fingerprint == 0 {
				chunk.Fingerprint = core.FingerprintText(chunk.Text)
			}
			chunk.InsertedAt = time.Now().UTC()
			chunk.UpdatedAt = chunk.InsertedAt

			if err := tx.Set(makeChunkKey(chunk.Id), storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			if chunk.DocumentId != 0 {
				if err := tx.Set(makeChunkDocKey(chunk.DocumentId, chunk.Id), storage.MarshalID(chunk.Id)); err != nil {
					return err
				}
			}

			if err := r.writeAnchorIndex(tx, nil, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// UpdateChunks updates existing chunks.
func (r *ChunkRepository) UpdateChunks(ctx context.Context, chunks ...*core.Chunk) ([]*core.Chunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			key := makeChunkKey(chunk.Id)

			old, err := r.readChunk(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			chunk.UpdatedAt = time.Now().UTC()

			if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
				return err
			}

			if err := r.writeAnchorIndex(tx, old, chunk); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return chunks, err
}

// MutateChunks applies mutate to freshly read chunks in one transaction.
// Only the chunks mutate reports as changed are written back.
func (r *ChunkRepository) MutateChunks(ctx context.Context, mutate func(*core.Chunk) bool, ids ...core.ID) ([]*core.Chunk, error) {
	var updated []*core.Chunk

	for attempt := 0; ; attempt++ {
		updated = updated[:0]
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			for _, id := range ids {
				key := makeChunkKey(id)

				chunk, err := r.readChunk(tx, key)
				if err != nil {
					return err
				}
				if chunk == nil {
					return storage.ErrNotFound
				}

				old := *chunk
				if !mutate(chunk) {
					continue
				}
				chunk.UpdatedAt = time.Now().UTC()

				if err := tx.Set(key, storage.MarshalChunk(chunk)); err != nil {
					return err
				}
				if err := r.writeAnchorIndex(tx, &old, chunk); err != nil {
					return err
				}
				updated = append(updated, chunk)
			}
			return tx.Commit()
		}, true)
		if errors.Is(err, badger.ErrConflict) && attempt < mutateRetryLimit {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
}

// DeleteChunksByDocument removes all chunks of a document and their indices.
func (r *ChunkRepository) DeleteChunksByDocument(ctx context.Context, documentId core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makeChunkDocScanPrefix(documentId)

		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)

		var ids []core.ID
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			err := item.Value(func(val []byte) error {
				id, err := storage.UnmarshalID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
		}
		iter.Close()

		for _, id := range ids {
			key := makeChunkKey(id)
			chunk, err := r.readChunk(tx, key)
			if err != nil {
				return err
			}
			if chunk == nil {
				continue
			}
			for _, slug := range chunk.MatchedAnchors {
				if err := tx.Delete(makeChunkAnchorKey(slug, id)); err != nil {
					return err
				}
			}
			if err := tx.Delete(makeChunkDocKey(documentId, id)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunk retrieves a single chunk by ID.
func (r *ChunkRepository) GetChunk(ctx context.Context, id core.ID) (*core.Chunk, error) {
	var chunk *core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		chunk, err = r.readChunk(tx, makeChunkKey(id))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if chunk == nil {
		return nil, storage.ErrNotFound
	}
	return chunk, nil
}

// Candidates retrieves the chunks within scope, in insertion (ID) order.
func (r *ChunkRepository) Candidates(ctx context.Context, scope storage.Scope) ([]*core.Chunk, error) {
	var results []*core.Chunk

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(chunkRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}
			if chunk == nil || !inScope(chunk, scope) {
				continue
			}
			results = append(results, chunk)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sequence IDs are monotonic, so ID order is insertion order.
	slices.SortFunc(results, func(a, b *core.Chunk) int {
		switch {
		case a.Id < b.Id:
			return -1
		case a.Id > b.Id:
			return 1
		default:
			return 0
		}
	})
	return results, nil
}

// ChunksByAnchor retrieves IDs of chunks whose matched anchors contain slug.
func (r *ChunkRepository) ChunksByAnchor(ctx context.Context, slug string) ([]core.ID, error) {
	var ids []core.ID
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkAnchorScanPrefix(slug)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				id, err := storage.UnmarshalID(val)
				if err != nil {
					return err
				}
				ids = append(ids, id)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// readChunk reads and unmarshals a chunk, returning nil when absent.
func (r *ChunkRepository) readChunk(tx *badger.Txn, key []byte) (*core.Chunk, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var chunk *core.Chunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalChunk(val)
		return err
	})
	return chunk, err
}

// writeAnchorIndex reconciles the anchor index entries for a chunk,
// removing slugs no longer matched and adding new ones.
func (r *ChunkRepository) writeAnchorIndex(tx *badger.Txn, old, chunk *core.Chunk) error {
	current := make(map[string]bool, len(chunk.MatchedAnchors))
	for _, slug := range chunk.MatchedAnchors {
		current[slug] = true
	}

	if old != nil {
		for _, slug := range old.MatchedAnchors {
			if !current[slug] {
				if err := tx.Delete(makeChunkAnchorKey(slug, chunk.Id)); err != nil {
					return err
				}
			}
		}
	}

	for slug := range current {
		if err := tx.Set(makeChunkAnchorKey(slug, chunk.Id), storage.MarshalID(chunk.Id)); err != nil {
			return err
		}
	}
	return nil
}

// inScope reports whether a chunk matches the scope filter.
func inScope(chunk *core.Chunk, scope storage.Scope) bool {
	if scope.DocumentId != 0 && chunk.DocumentId != scope.DocumentId {
		return false
	}
	if scope.ProjectId != 0 && chunk.ProjectId != scope.ProjectId {
		return false
	}
	if scope.AssistantId != "" && chunk.AssistantId != scope.AssistantId {
		return false
	}
	return true
}
