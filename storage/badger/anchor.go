// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/storage"
)

// AnchorRepository implements storage.AnchorRepository for BadgerDB.
//
// Anchors are keyed by slug. Mutation-state transitions run inside a
// single read-modify-write transaction; BadgerDB's SSI conflict
// detection turns a lost race into ErrConcurrentMutation rather than a
// silent overwrite.
type AnchorRepository struct {
	backend *Backend
}

var _ storage.AnchorRepository = (*AnchorRepository)(nil)

// NewAnchorRepository creates a new AnchorRepository.
func NewAnchorRepository(backend *Backend) (*AnchorRepository, error) {
	return &AnchorRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources of its own.
func (r *AnchorRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *AnchorRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutAnchor validates and upserts an anchor by slug.
func (r *AnchorRepository) PutAnchor(ctx context.Context, anchor *core.Anchor) (*core.Anchor, error) {
	if err := core.ValidateAnchor(anchor); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := r.readAnchor(tx, anchor.Slug)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if existing != nil {
			anchor.InsertedAt = existing.InsertedAt
		} else {
			anchor.InsertedAt = now
		}
		anchor.UpdatedAt = now

		if err := tx.Set(makeAnchorKey(anchor.Slug), storage.MarshalAnchor(anchor)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return anchor, nil
}

// GetAnchor retrieves an anchor by slug.
func (r *AnchorRepository) GetAnchor(ctx context.Context, slug string) (*core.Anchor, error) {
	var anchor *core.Anchor
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		anchor, err = r.readAnchor(tx, slug)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	if anchor == nil {
		return nil, storage.ErrNotFound
	}
	return anchor, nil
}

// ListAnchors retrieves all anchors ordered by slug.
func (r *AnchorRepository) ListAnchors(ctx context.Context, includeSuppressed bool) ([]*core.Anchor, error) {
	var anchors []*core.Anchor

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(anchorRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var anchor *core.Anchor
			err := iter.Item().Value(func(val []byte) error {
				var err error
				anchor, err = storage.UnmarshalAnchor(val)
				return err
			})
			if err != nil {
				return err
			}
			if !includeSuppressed && anchor.AutoSuppressed {
				continue
			}
			anchors = append(anchors, anchor)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Keys are "ancrec:<slug>", so badger already iterates in slug order.
	// Sorting again keeps the contract independent of the key scheme.
	slices.SortFunc(anchors, func(a, b *core.Anchor) int {
		return strings.Compare(a.Slug, b.Slug)
	})
	return anchors, nil
}

// RequestMutation atomically flips an anchor's mutation status from none
// to pending. A conflicting concurrent request surfaces as
// ErrConcurrentMutation; callers decide whether to retry.
func (r *AnchorRepository) RequestMutation(ctx context.Context, slug, suggestedLabel string, origin core.AnchorOrigin) (*core.Anchor, error) {
	if suggestedLabel == "" {
		return nil, core.ErrPendingWithoutSuggestion
	}

	var anchor *core.Anchor
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		anchor, err = r.readAnchor(tx, slug)
		if err != nil {
			return err
		}
		if anchor == nil {
			return storage.ErrNotFound
		}
		if anchor.MutationStatus != core.MutationNone {
			return storage.ErrMutationPending
		}

		anchor.MutationStatus = core.MutationPending
		anchor.SuggestedLabel = suggestedLabel
		anchor.Origin = origin
		anchor.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeAnchorKey(slug), storage.MarshalAnchor(anchor)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		return nil, storage.ErrConcurrentMutation
	}
	if err != nil {
		return nil, err
	}
	return anchor, nil
}

// ApplyMutation adopts a pending suggestion.
func (r *AnchorRepository) ApplyMutation(ctx context.Context, slug string) (*core.Anchor, error) {
	var anchor *core.Anchor
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		anchor, err = r.readAnchor(tx, slug)
		if err != nil {
			return err
		}
		if anchor == nil {
			return storage.ErrNotFound
		}
		if anchor.MutationStatus != core.MutationPending {
			return storage.ErrNoPendingMutation
		}

		anchor.Label = anchor.SuggestedLabel
		anchor.MutationStatus = core.MutationApplied
		anchor.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeAnchorKey(slug), storage.MarshalAnchor(anchor)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		return nil, storage.ErrConcurrentMutation
	}
	if err != nil {
		return nil, err
	}
	return anchor, nil
}

// UpdateFallbackScore sets the anchor's rolling retrieval confidence.
func (r *AnchorRepository) UpdateFallbackScore(ctx context.Context, slug string, score float64) error {
	return r.mutateAnchor(slug, func(anchor *core.Anchor) {
		anchor.FallbackScore = score
	})
}

// SetWeightOverride sets or clears the anchor's boost override.
func (r *AnchorRepository) SetWeightOverride(ctx context.Context, slug string, override *float64) error {
	return r.mutateAnchor(slug, func(anchor *core.Anchor) {
		anchor.WeightOverride = override
	})
}

// SetFocus toggles whether the anchor participates in ranking boosts.
func (r *AnchorRepository) SetFocus(ctx context.Context, slug string, focus bool) error {
	return r.mutateAnchor(slug, func(anchor *core.Anchor) {
		anchor.IsFocusTerm = focus
	})
}

// Suppress marks an anchor auto-suppressed.
func (r *AnchorRepository) Suppress(ctx context.Context, slug string) error {
	return r.mutateAnchor(slug, func(anchor *core.Anchor) {
		anchor.AutoSuppressed = true
	})
}

// mutateAnchor applies a field update inside a read-modify-write transaction.
func (r *AnchorRepository) mutateAnchor(slug string, update func(*core.Anchor)) error {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		anchor, err := r.readAnchor(tx, slug)
		if err != nil {
			return err
		}
		if anchor == nil {
			return storage.ErrNotFound
		}

		update(anchor)
		anchor.UpdatedAt = time.Now().UTC()

		if err := tx.Set(makeAnchorKey(slug), storage.MarshalAnchor(anchor)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if errors.Is(err, badger.ErrConflict) {
		return storage.ErrConcurrentMutation
	}
	return err
}

// readAnchor reads and unmarshals an anchor, returning nil when absent.
func (r *AnchorRepository) readAnchor(tx *badger.Txn, slug string) (*core.Anchor, error) {
	item, err := tx.Get(makeAnchorKey(slug))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var anchor *core.Anchor
	err = item.Value(func(val []byte) error {
		var err error
		anchor, err = storage.UnmarshalAnchor(val)
		return err
	})
	return anchor, err
}
