package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/libraryapp/library-server/internal/domain"
	domainerrors "github.com/libraryapp/library-server/internal/errors"
	"github.com/libraryapp/library-server/internal/pubsub"
	"github.com/libraryapp/library-server/internal/store"
)

// CatalogService handles books and authors. Every successful AddBook is
// published to the book-added topic for subscription fan-out.
type CatalogService struct {
	store  *store.Store
	broker *pubsub.Broker
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store *store.Store, broker *pubsub.Broker, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		broker: broker,
		logger: logger,
	}
}

// AddBookRequest contains the data for a new book.
type AddBookRequest struct {
	Title     string   `json:"title" validate:"required"`
	Author    string   `json:"author" validate:"required"`
	Published int      `json:"published"`
	Genres    []string `json:"genres" validate:"required"`
}

// EditAuthorRequest updates an author's birth year, matched by exact name.
type EditAuthorRequest struct {
	Name      string `json:"name" validate:"required"`
	// Zero is a legal year, so no required rule here.
	SetBornTo int `json:"setBornTo"`
}

// BookCount returns the number of catalogued books.
func (s *CatalogService) BookCount(ctx context.Context) (int, error) {
	return s.store.Books.Count(ctx)
}

// AuthorCount returns the number of known authors.
func (s *CatalogService) AuthorCount(ctx context.Context) (int, error) {
	return s.store.Authors.Count(ctx)
}

// AllBooks lists every book joined with its author. When genre is
// non-empty only books carrying that genre are returned.
func (s *CatalogService) AllBooks(ctx context.Context, genre string) ([]store.BookWithAuthor, error) {
	return s.store.ListBooks(ctx, genre)
}

// AllAuthors lists every author.
func (s *CatalogService) AllAuthors(ctx context.Context) ([]*domain.Author, error) {
	var authors []*domain.Author
	for author, err := range s.store.Authors.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list authors: %w", err)
		}
		authors = append(authors, author)
	}
	return authors, nil
}

// AddBook creates a book on behalf of user, upserting its author by name
// in the same transaction. The new book is published to subscribers after
// the write commits.
func (s *CatalogService) AddBook(ctx context.Context, user *domain.User, req AddBookRequest) (*store.BookWithAuthor, error) {
	if user == nil {
		return nil, domainerrors.Unauthenticated("not authenticated")
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	result, err := s.store.AddBook(ctx, req.Author, req.Title, req.Published, req.Genres)
	if err != nil {
		return nil, fmt.Errorf("add book: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Book added",
			"book_id", result.Book.ID,
			"title", result.Book.Title,
			"author", result.Author.Name,
			"user_id", user.ID,
		)
	}

	s.broker.Publish(pubsub.TopicBookAdded, result)

	return result, nil
}

// EditAuthor sets the birth year of the author with the given name.
// Returns nil without error when no author matches, so the mutation
// resolves to null rather than an error.
func (s *CatalogService) EditAuthor(ctx context.Context, user *domain.User, req EditAuthorRequest) (*domain.Author, error) {
	if user == nil {
		return nil, domainerrors.Unauthenticated("not authenticated")
	}
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	author, err := s.store.SetAuthorBorn(ctx, req.Name, req.SetBornTo)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("edit author: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Author updated",
			"author_id", author.ID,
			"name", author.Name,
			"born", req.SetBornTo,
		)
	}

	return author, nil
}
