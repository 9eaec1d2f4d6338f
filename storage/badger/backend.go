package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Sequences lease ID ranges in blocks of this size. Unused IDs in a
// leased block are lost on close, which is fine for storage keys.
const defaultSequenceBandwidth = 100

// Backend wraps a BadgerDB instance shared by all repositories.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// slogBridge forwards badger's internal logging to slog.
type slogBridge struct {
	logger *slog.Logger
}

var _ badger.Logger = (*slogBridge)(nil)

func (sb *slogBridge) Errorf(msg string, items ...any) {
	sb.logger.Error(fmt.Sprintf(msg, items...))
}

func (sb *slogBridge) Warningf(msg string, items ...any) {
	sb.logger.Warn(fmt.Sprintf(msg, items...))
}

func (sb *slogBridge) Infof(msg string, items ...any) {
	sb.logger.Info(fmt.Sprintf(msg, items...))
}

func (sb *slogBridge) Debugf(msg string, items ...any) {
	sb.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens (or creates) a BadgerDB database at filePath.
// With inMemory set, the path is ignored and nothing is persisted.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := ensureDataDir(filePath); err != nil {
			return nil, err
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default()
	opts.Logger = &slogBridge{logger: logger}
	// Embedding vectors are high-entropy floats; compression buys
	// nothing here.
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{db: db, logger: logger}, nil
}

// ensureDataDir creates the database directory if it does not exist and
// rejects paths that point at regular files.
func ensureDataDir(filePath string) error {
	info, err := os.Stat(filePath)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(filePath, 0755)
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("%s is not a directory", filePath)
	}
	return nil
}

// Close closes the underlying database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed reports whether the database has been closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx runs fn inside a BadgerDB transaction, read-write when isWrite
// is set. The transaction is discarded unless fn commits it.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetSequence returns a named BadgerDB sequence for generating IDs.
func (b *Backend) GetSequence(name string) (*badger.Sequence, error) {
	return b.db.GetSequence([]byte(name), defaultSequenceBandwidth)
}

// WithTransaction executes a function within a transaction.
// Implements the storage.Repository transaction contract.
func (b *Backend) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return b.WithTx(func(tx *badger.Txn) error {
		if err := fn(ctx); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
