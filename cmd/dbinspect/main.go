// Package main provides a read-only inspection tool for the catalog
// database.
package main

import (
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/libraryapp/library-server/internal/domain"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/library-server/data/db")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	bookCount := 0
	authorCount := 0
	userCount := 0

	err = db.View(func(txn *badger.Txn) error {
		if err := iterate(txn, "book:", func(val []byte) error {
			var book domain.Book
			if err := json.Unmarshal(val, &book); err != nil {
				return err
			}
			bookCount++
			if bookCount <= 5 {
				fmt.Printf("Book: %s (%d)\n", book.Title, book.Published)
				fmt.Printf("  ID: %s\n", book.ID)
				fmt.Printf("  Author: %s\n", book.AuthorID)
				fmt.Printf("  Genres: %s\n", strings.Join(book.Genres, ", "))
			}
			return nil
		}); err != nil {
			return err
		}

		if err := iterate(txn, "author:", func(val []byte) error {
			var author domain.Author
			if err := json.Unmarshal(val, &author); err != nil {
				return err
			}
			authorCount++
			born := "unknown"
			if author.Born != nil {
				born = fmt.Sprintf("%d", *author.Born)
			}
			fmt.Printf("Author: %s (born %s, %d books)\n", author.Name, born, author.BookCount)
			return nil
		}); err != nil {
			return err
		}

		return iterate(txn, "user:", func(val []byte) error {
			var user domain.User
			if err := json.Unmarshal(val, &user); err != nil {
				return err
			}
			userCount++
			return nil
		})
	})
	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Summary ===")
	fmt.Printf("Books: %d\n", bookCount)
	fmt.Printf("Authors: %d\n", authorCount)
	fmt.Printf("Users: %d\n", userCount)
}

// iterate visits the value of every record under prefix, skipping index
// entries.
func iterate(txn *badger.Txn, prefix string, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	idxPrefix := prefix + "idx:"
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		item := it.Item()
		if strings.HasPrefix(string(item.Key()), idxPrefix) {
			continue
		}
		if err := item.Value(fn); err != nil {
			return err
		}
	}
	return nil
}
