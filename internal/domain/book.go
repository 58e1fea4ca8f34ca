// Package domain contains the core entities of the library catalog.
package domain

import (
	"slices"
	"time"
)

// Book represents a single catalogued book.
// Books are immutable once created; there is no edit or delete operation.
type Book struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	AuthorID  string    `json:"author_id"`
	Genres    []string  `json:"genres"`
	Published int       `json:"published"`
}

// HasGenre reports whether the book is tagged with the given genre.
func (b *Book) HasGenre(genre string) bool {
	return slices.Contains(b.Genres, genre)
}
