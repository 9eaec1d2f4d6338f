package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/storage"
)

// DriftRepository implements storage.DriftRepository for BadgerDB.
// Observations are keyed by (slug, day), so iteration within a slug
// prefix yields day order for free.
type DriftRepository struct {
	backend *Backend
}

var _ storage.DriftRepository = (*DriftRepository)(nil)

// NewDriftRepository creates a new DriftRepository.
func NewDriftRepository(backend *Backend) (*DriftRepository, error) {
	return &DriftRepository{backend: backend}, nil
}

// Close is a no-op; the repository holds no resources of its own.
func (r *DriftRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DriftRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutObservation upserts the observation for its (anchor, day) key.
func (r *DriftRepository) PutObservation(ctx context.Context, obs *core.DriftObservation) error {
	if obs.AnchorSlug == "" {
		return core.ErrEmptySlug
	}
	obs.Day = core.DayOf(obs.Day)

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeDriftKey(obs.AnchorSlug, obs.Day), storage.MarshalObservation(obs)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetObservations retrieves an anchor's observations in [since, until),
// ordered by day.
func (r *DriftRepository) GetObservations(ctx context.Context, slug string, since, until time.Time) ([]*core.DriftObservation, error) {
	sinceDay := core.DayOf(since)
	var observations []*core.DriftObservation

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeDriftScanPrefix(slug)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeDriftKey(slug, sinceDay)); iter.Valid(); iter.Next() {
			var obs *core.DriftObservation
			err := iter.Item().Value(func(val []byte) error {
				var err error
				obs, err = storage.UnmarshalObservation(val)
				return err
			})
			if err != nil {
				return err
			}
			if !obs.Day.Before(until) {
				break
			}
			observations = append(observations, obs)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return observations, nil
}
