package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic CRUD operations for a domain type.
type Entity[T any] struct {
	store   *Store
	prefix  string
	indexes []uniqueIndex[T]
}

// uniqueIndex defines a unique secondary index on an entity. The store
// rejects a create whose index value is already taken, which is how
// Author.name and User.username uniqueness are enforced.
type uniqueIndex[T any] struct {
	name   string
	keyGen func(*T) string
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{
		store:  s,
		prefix: prefix,
	}
}

// WithUniqueIndex adds a unique secondary index to the entity.
func (e *Entity[T]) WithUniqueIndex(name string, keyGen func(*T) string) *Entity[T] {
	e.indexes = append(e.indexes, uniqueIndex[T]{
		name:   name,
		keyGen: keyGen,
	})
	return e
}

// Create creates a new entity with the given ID.
// Returns ErrAlreadyExists if the ID or any unique index value is taken.
func (e *Entity[T]) Create(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	key := recordKey(e.prefix, id)

	return e.store.update(func(txn *badger.Txn) error {
		// Check if the ID already exists.
		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		// Check for index conflicts.
		for _, idx := range e.indexes {
			idxKey := indexKey(e.prefix, idx.name, idx.keyGen(entity))
			_, err := txn.Get(idxKey)
			if err == nil {
				return fmt.Errorf("index %s conflict on %q: %w", idx.name, idx.keyGen(entity), ErrAlreadyExists)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("failed to check index key: %w", err)
			}
		}

		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}

		for _, idx := range e.indexes {
			idxKey := indexKey(e.prefix, idx.name, idx.keyGen(entity))
			if err := txn.Set(idxKey, []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}

		return nil
	})
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(e.prefix, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get key: %w", err)
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entity); err != nil {
				return fmt.Errorf("failed to unmarshal entity: %w", err)
			}
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return &entity, nil
}

// GetByIndex retrieves an entity by a unique secondary index value.
// Returns ErrNotFound if no entity carries that value.
func (e *Entity[T]) GetByIndex(ctx context.Context, indexName, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entityID string
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(e.prefix, indexName, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			entityID = string(val)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return e.Get(ctx, entityID)
}

// List returns an iterator over all entities in key order.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)
			opts.PrefetchValues = true

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				// Skip index entries.
				if e.isIndexKey(it.Item().Key()) {
					continue
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					yield(nil, err)
					return err
				}

				if !yield(&entity, nil) {
					return nil // Consumer stopped early
				}
			}

			return nil
		})
	}
}

// Count returns the number of stored entities using a key-only scan.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(e.prefix)
		opts.PrefetchValues = false // Keys are enough for counting

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(e.prefix)); it.ValidForPrefix([]byte(e.prefix)); it.Next() {
			if !e.isIndexKey(it.Item().Key()) {
				count++
			}
		}
		return nil
	})

	if err != nil {
		return 0, err
	}

	return count, nil
}

// isIndexKey reports whether a full database key is an index entry rather
// than a record.
func (e *Entity[T]) isIndexKey(key []byte) bool {
	return strings.HasPrefix(string(key[len(e.prefix):]), "idx:")
}
