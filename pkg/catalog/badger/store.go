// Package badger provides a catalog.Store implementation backed by
// BadgerDB, a fast embedded key-value store.
//
// It is the production store: documents survive restarts and crashes
// (Badger is WAL-based) and the unique folder name index is maintained
// transactionally with the documents, so concurrent writers racing for
// the same name serialize through Badger's conflict detection — the first
// committed write wins and the loser observes ErrAlreadyExists.
package badger

import (
	"context"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/kol-dayn/depot/pkg/catalog"
)

// BadgerStore implements catalog.Store using BadgerDB for persistence.
//
// Thread safety: Badger transactions provide isolation; no additional
// locking is needed. Write conflicts on the name index surface as
// badger.ErrConflict and are retried a bounded number of times before
// giving up (see update).
type BadgerStore struct {
	db *badger.DB
}

// Options configures a BadgerStore.
type Options struct {
	// Path is the directory holding the Badger database files.
	Path string

	// InMemory runs Badger without disk persistence (tests only).
	InMemory bool
}

// NewBadgerStore opens (creating if needed) the database at opts.Path.
func NewBadgerStore(opts Options) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.Path)
	badgerOpts.InMemory = opts.InMemory
	if opts.InMemory {
		badgerOpts.Dir = ""
		badgerOpts.ValueDir = ""
	}
	// Badger logs through its own logger by default; the catalog is quiet.
	badgerOpts.Logger = nil

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %q: %w", opts.Path, err)
	}
	return &BadgerStore{db: db}, nil
}

// update runs fn in a read-write transaction, retrying on conflict.
//
// Conflicts happen when writers race for the same name index entry; the
// retried transaction re-reads the index and reports ErrAlreadyExists to
// the loser instead of a transport-level conflict.
func (s *BadgerStore) update(fn func(txn *badger.Txn) error) error {
	const maxAttempts = 16

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = s.db.Update(fn)
		if err != badger.ErrConflict {
			return err
		}
	}
	return err
}

// Ping verifies the store is usable by running an empty view transaction.
func (s *BadgerStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return catalog.NewError(catalog.ErrUnavailable, "store is closed")
	}
	return s.db.View(func(txn *badger.Txn) error { return nil })
}

// Close releases the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
