package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/grounder/core"
	"github.com/poiesic/grounder/storage"
)

// GroundingLogRepository implements storage.GroundingLogRepository for
// BadgerDB. Entries are stored under time-ordered keys so range queries
// are a single forward scan.
type GroundingLogRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.GroundingLogRepository = (*GroundingLogRepository)(nil)

// NewGroundingLogRepository creates a new GroundingLogRepository.
func NewGroundingLogRepository(backend *Backend) (*GroundingLogRepository, error) {
	idSeq, err := backend.GetSequence(logIDSeq)
	if err != nil {
		return nil, err
	}

	return &GroundingLogRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *GroundingLogRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *GroundingLogRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// Append records one retrieval outcome.
func (r *GroundingLogRepository) Append(ctx context.Context, entry *core.GroundingLogEntry) (*core.GroundingLogEntry, error) {
	if err := core.ValidateLogEntry(entry); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if entry.Id == 0 {
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
			entry.Id = core.ID(nextID)
		}

		if entry.Timestamp.IsZero() {
			entry.Timestamp = time.Now().UTC()
		}

		if err := tx.Set(makeLogKey(entry.Timestamp, entry.Id), storage.MarshalLogEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Query retrieves entries in [since, until) that reference the anchor slug.
func (r *GroundingLogRepository) Query(ctx context.Context, slug string, since, until time.Time) ([]*core.GroundingLogEntry, error) {
	return r.scan(since, until, func(entry *core.GroundingLogEntry) bool {
		return entry.References(slug)
	})
}

// QueryAll retrieves all entries in [since, until), ordered by timestamp.
func (r *GroundingLogRepository) QueryAll(ctx context.Context, since, until time.Time) ([]*core.GroundingLogEntry, error) {
	return r.scan(since, until, func(*core.GroundingLogEntry) bool {
		return true
	})
}

// scan iterates log keys from since forward, stopping once until is
// reached, keeping the entries keep accepts.
func (r *GroundingLogRepository) scan(since, until time.Time, keep func(*core.GroundingLogEntry) bool) ([]*core.GroundingLogEntry, error) {
	var entries []*core.GroundingLogEntry

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(logRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeLogScanStart(since)); iter.Valid(); iter.Next() {
			var entry *core.GroundingLogEntry
			err := iter.Item().Value(func(val []byte) error {
				var err error
				entry, err = storage.UnmarshalLogEntry(val)
				return err
			})
			if err != nil {
				return err
			}
			if !entry.Timestamp.Before(until) {
				break
			}
			if keep(entry) {
				entries = append(entries, entry)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return entries, nil
}
