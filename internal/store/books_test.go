package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBook_CreatesBookAndAuthor(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	result, err := s.AddBook(ctx, "N.K. Jemisin", "The Fifth Season", 2015, []string{"fantasy", "sci-fi"})
	require.NoError(t, err)

	assert.Equal(t, "The Fifth Season", result.Book.Title)
	assert.Equal(t, 2015, result.Book.Published)
	assert.Equal(t, []string{"fantasy", "sci-fi"}, result.Book.Genres)
	assert.Equal(t, result.Author.ID, result.Book.AuthorID)
	assert.Equal(t, "N.K. Jemisin", result.Author.Name)
	assert.Equal(t, 1, result.Author.BookCount)

	bookCount, err := s.Books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, bookCount)

	authorCount, err := s.Authors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, authorCount)
}

func TestAddBook_SecondBookSameAuthor(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	first, err := s.AddBook(ctx, "N.K. Jemisin", "The Fifth Season", 2015, []string{"fantasy"})
	require.NoError(t, err)

	second, err := s.AddBook(ctx, "N.K. Jemisin", "The Obelisk Gate", 2016, []string{"fantasy"})
	require.NoError(t, err)

	assert.Equal(t, first.Author.ID, second.Author.ID)
	assert.Equal(t, 2, second.Author.BookCount)

	authorCount, err := s.Authors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, authorCount)
}

func TestAddBook_ConcurrentNewAuthor(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	titles := []string{"Kindred", "Parable of the Sower"}
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.AddBook(ctx, "Octavia E. Butler", titles[i], 1979+i, []string{"sci-fi"})
		}()
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	author, err := s.Authors.GetByIndex(ctx, "name", "Octavia E. Butler")
	require.NoError(t, err)
	assert.Equal(t, 2, author.BookCount)

	authorCount, err := s.Authors.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, authorCount)

	bookCount, err := s.Books.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, bookCount)
}

func TestListBooks_All(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := s.AddBook(ctx, "N.K. Jemisin", "The Fifth Season", 2015, []string{"fantasy"})
	require.NoError(t, err)
	_, err = s.AddBook(ctx, "Octavia E. Butler", "Kindred", 1979, []string{"sci-fi"})
	require.NoError(t, err)

	books, err := s.ListBooks(ctx, "")
	require.NoError(t, err)
	require.Len(t, books, 2)

	// Authors are joined.
	for _, b := range books {
		assert.Equal(t, b.Author.ID, b.Book.AuthorID)
		assert.NotEmpty(t, b.Author.Name)
	}
}

func TestListBooks_ConcurrentAddBook(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	// Every book commits together with its author, so a reader must
	// never see a book whose author is missing, no matter how the
	// listing interleaves with writes.
	const writes = 30
	done := make(chan error, 1)
	go func() {
		for i := range writes {
			_, err := s.AddBook(ctx, fmt.Sprintf("Author %d", i), fmt.Sprintf("Book %d", i), 1990+i, []string{"serial"})
			if err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			books, err := s.ListBooks(ctx, "")
			require.NoError(t, err)
			require.Len(t, books, writes)
			return
		default:
			books, err := s.ListBooks(ctx, "")
			require.NoError(t, err)
			for _, b := range books {
				require.NotNil(t, b.Author)
				require.Equal(t, b.Author.ID, b.Book.AuthorID)
			}
		}
	}
}

func TestListBooks_GenreFilter(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := s.AddBook(ctx, "N.K. Jemisin", "The Fifth Season", 2015, []string{"fantasy", "sci-fi"})
	require.NoError(t, err)
	_, err = s.AddBook(ctx, "Octavia E. Butler", "Kindred", 1979, []string{"sci-fi"})
	require.NoError(t, err)
	_, err = s.AddBook(ctx, "Tana French", "In the Woods", 2007, []string{"crime"})
	require.NoError(t, err)

	books, err := s.ListBooks(ctx, "sci-fi")
	require.NoError(t, err)
	require.Len(t, books, 2)

	for _, b := range books {
		assert.Contains(t, b.Book.Genres, "sci-fi")
	}

	// Unknown genre matches nothing.
	books, err = s.ListBooks(ctx, "romance")
	require.NoError(t, err)
	assert.Empty(t, books)
}
