// Package main provides a tool to seed the database with a starter catalog.
//
// Usage:
//
//	DB_PATH=~/library-server/data/db go run ./cmd/seed
//	DB_PATH=~/library-server/data/db go run ./cmd/seed --create-users
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/libraryapp/library-server/internal/domain"
	"github.com/libraryapp/library-server/internal/id"
	"github.com/libraryapp/library-server/internal/store"
)

var createUsers = flag.Bool("create-users", false, "Also create sample user accounts")

type seedBook struct {
	title     string
	author    string
	published int
	genres    []string
}

var books = []seedBook{
	{"Clean Code", "Robert Martin", 2008, []string{"refactoring"}},
	{"Agile software development", "Robert Martin", 2002, []string{"agile", "patterns", "design"}},
	{"Refactoring, edition 2", "Martin Fowler", 2018, []string{"refactoring"}},
	{"Refactoring to patterns", "Joshua Kerievsky", 2008, []string{"refactoring", "patterns"}},
	{"Practical Object-Oriented Design, An Agile Primer Using Ruby", "Sandi Metz", 2012, []string{"refactoring", "design"}},
	{"Crime and punishment", "Fyodor Dostoevsky", 1866, []string{"classic", "crime"}},
	{"Demons", "Fyodor Dostoevsky", 1872, []string{"classic", "revolution"}},
}

// birthYears sets born for the authors whose year is known.
var birthYears = map[string]int{
	"Robert Martin":     1952,
	"Martin Fowler":     1963,
	"Fyodor Dostoevsky": 1821,
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/library-server/data/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	for _, b := range books {
		result, err := s.AddBook(ctx, b.author, b.title, b.published, b.genres)
		if err != nil {
			log.Fatalf("Failed to add %q: %v", b.title, err)
		}
		fmt.Printf("Added %q by %s\n", result.Book.Title, result.Author.Name)
	}

	for name, born := range birthYears {
		if _, err := s.SetAuthorBorn(ctx, name, born); err != nil {
			log.Fatalf("Failed to set birth year for %s: %v", name, err)
		}
	}

	if *createUsers {
		seedUsers(ctx, s)
	}

	bookCount, err := s.Books.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count books: %v", err)
	}
	authorCount, err := s.Authors.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count authors: %v", err)
	}
	fmt.Printf("Done: %d books, %d authors\n", bookCount, authorCount)
}

func seedUsers(ctx context.Context, s *store.Store) {
	users := []struct {
		username string
		genre    string
	}{
		{"alice", "refactoring"},
		{"bob", "classic"},
	}

	for _, u := range users {
		userID := id.MustGenerate("user")
		user := &domain.User{
			CreatedAt:     time.Now(),
			ID:            userID,
			Username:      u.username,
			FavoriteGenre: u.genre,
		}
		if err := s.Users.Create(ctx, userID, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", u.username, err)
		}
		fmt.Printf("Created user %s (favorite genre %s)\n", u.username, u.genre)
	}
}
