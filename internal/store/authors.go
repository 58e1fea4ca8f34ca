package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/libraryapp/library-server/internal/domain"
	"github.com/libraryapp/library-server/internal/id"
)

// getAuthorByName loads an author through the name index inside txn.
// Returns ErrNotFound when no author carries the name.
func getAuthorByName(txn *badger.Txn, name string) (*domain.Author, error) {
	idxItem, err := txn.Get(indexKey(authorPrefix, "name", name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup author name index: %w", err)
	}

	var authorID string
	if err := idxItem.Value(func(val []byte) error {
		authorID = string(val)
		return nil
	}); err != nil {
		return nil, err
	}

	item, err := txn.Get(recordKey(authorPrefix, authorID))
	if err != nil {
		return nil, fmt.Errorf("load author %s: %w", authorID, err)
	}

	var author domain.Author
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &author)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal author: %w", err)
	}

	return &author, nil
}

// putAuthor writes an author record and its name index entry inside txn.
func putAuthor(txn *badger.Txn, author *domain.Author) error {
	data, err := json.Marshal(author)
	if err != nil {
		return fmt.Errorf("marshal author: %w", err)
	}
	if err := txn.Set(recordKey(authorPrefix, author.ID), data); err != nil {
		return err
	}
	return txn.Set(indexKey(authorPrefix, "name", author.Name), []byte(author.ID))
}

// upsertAuthorIncrement finds the author by name and increments its book
// count, creating the author with a count of one when absent. Runs inside
// an existing transaction so callers can combine it with other writes.
func upsertAuthorIncrement(txn *badger.Txn, name string) (*domain.Author, error) {
	author, err := getAuthorByName(txn, name)
	switch {
	case err == nil:
		author.BookCount++
		author.Touch()
	case errors.Is(err, ErrNotFound):
		now := time.Now()
		author = &domain.Author{
			CreatedAt: now,
			UpdatedAt: now,
			ID:        id.MustGenerate("author"),
			Name:      name,
			BookCount: 1,
		}
	default:
		return nil, err
	}

	if err := putAuthor(txn, author); err != nil {
		return nil, err
	}
	return author, nil
}

// UpsertAuthorIncrement atomically increments the book count of the named
// author, creating the record when it does not exist yet. Concurrent calls
// for the same new name never produce two records: the losing transaction
// conflicts and re-runs against the winner's state.
func (s *Store) UpsertAuthorIncrement(ctx context.Context, name string) (*domain.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var author *domain.Author
	err := s.update(func(txn *badger.Txn) error {
		var err error
		author, err = upsertAuthorIncrement(txn, name)
		return err
	})
	if err != nil {
		return nil, err
	}

	return author, nil
}

// SetAuthorBorn updates the birth year of the author matched by exact name.
// Returns ErrNotFound when no author carries the name.
func (s *Store) SetAuthorBorn(ctx context.Context, name string, born int) (*domain.Author, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var author *domain.Author
	err := s.update(func(txn *badger.Txn) error {
		var err error
		author, err = getAuthorByName(txn, name)
		if err != nil {
			return err
		}

		author.Born = &born
		author.Touch()
		return putAuthor(txn, author)
	})
	if err != nil {
		return nil, err
	}

	return author, nil
}
