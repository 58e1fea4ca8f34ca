package store

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/libraryapp/library-server/internal/domain"
	"github.com/libraryapp/library-server/internal/id"
)

// BookWithAuthor pairs a book with its resolved author so callers can
// render the joined view without a second lookup.
type BookWithAuthor struct {
	Book   *domain.Book
	Author *domain.Author
}

// AddBook persists a new book and its author in a single transaction: the
// author is upserted by name (book count incremented, record created on
// first reference) and the book is inserted referencing it. Either both
// writes commit or neither does.
func (s *Store) AddBook(ctx context.Context, authorName, title string, published int, genres []string) (*BookWithAuthor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result BookWithAuthor
	err := s.update(func(txn *badger.Txn) error {
		author, err := upsertAuthorIncrement(txn, authorName)
		if err != nil {
			return err
		}

		book := &domain.Book{
			CreatedAt: time.Now(),
			ID:        id.MustGenerate("book"),
			Title:     title,
			AuthorID:  author.ID,
			Genres:    genres,
			Published: published,
		}

		data, err := json.Marshal(book)
		if err != nil {
			return fmt.Errorf("marshal book: %w", err)
		}
		if err := txn.Set(recordKey(bookPrefix, book.ID), data); err != nil {
			return fmt.Errorf("insert book: %w", err)
		}

		result = BookWithAuthor{Book: book, Author: author}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// ListBooks returns all books joined with their authors, in store order.
// When genre is non-empty only books whose genre set contains it are
// returned.
func (s *Store) ListBooks(ctx context.Context, genre string) ([]BookWithAuthor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var books []BookWithAuthor

	// Both scans run in one snapshot so a book committed mid-list is
	// never seen without the author it was inserted with.
	err := s.db.View(func(txn *badger.Txn) error {
		// Authors are few; load them once instead of per book.
		authorsByID := make(map[string]*domain.Author)
		err := scanRecords(txn, authorPrefix, func(val []byte) error {
			var author domain.Author
			if err := json.Unmarshal(val, &author); err != nil {
				return err
			}
			authorsByID[author.ID] = &author
			return nil
		})
		if err != nil {
			return err
		}

		return scanRecords(txn, bookPrefix, func(val []byte) error {
			var book domain.Book
			if err := json.Unmarshal(val, &book); err != nil {
				return err
			}
			if genre != "" && !book.HasGenre(genre) {
				return nil
			}

			author, ok := authorsByID[book.AuthorID]
			if !ok {
				return fmt.Errorf("book %s references unknown author %s", book.ID, book.AuthorID)
			}
			books = append(books, BookWithAuthor{Book: &book, Author: author})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return books, nil
}
