// Package store implements the persistence layer for the library catalog
// on top of Badger.
package store

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/libraryapp/library-server/internal/domain"
)

// maxTxnRetries bounds how often a transaction is retried after a write
// conflict. Conflicts are rare and transient (two requests touching the
// same author), so a handful of attempts is enough.
const maxTxnRetries = 10

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Generic entities
	Users   *Entity[domain.User]
	Authors *Entity[domain.Author]
	Books   *Entity[domain.Book]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	store.Users = NewEntity[domain.User](store, userPrefix).
		WithUniqueIndex("username", func(u *domain.User) string {
			return u.Username
		})

	store.Authors = NewEntity[domain.Author](store, authorPrefix).
		WithUniqueIndex("name", func(a *domain.Author) string {
			return a.Name
		})

	store.Books = NewEntity[domain.Book](store, bookPrefix)

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Backup streams a full snapshot of the database to w and returns the
// version up to which the snapshot is valid.
func (s *Store) Backup(w io.Writer) (uint64, error) {
	return s.db.Backup(w, 0)
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// scanRecords visits the value of every record under prefix within txn,
// skipping unique index entries.
func scanRecords(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		key := it.Item().Key()
		if strings.HasPrefix(string(key[len(prefix):]), "idx:") {
			continue
		}
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on write conflicts.
// Badger detects conflicting concurrent transactions at commit time; the
// losing transaction is simply re-run against the new state. This is what
// makes the author upsert-with-increment atomic per name: two simultaneous
// inserts of the same new author converge on one record.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxTxnRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("transaction retries exhausted: %w", err)
}
