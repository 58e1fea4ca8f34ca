package domain

import "time"

// Author represents a book author. Authors are created implicitly by the
// first book that references them and are keyed by their unique name.
type Author struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Born      *int      `json:"born,omitempty"`
	// BookCount is maintained incrementally on every book insert rather
	// than recomputed. Books cannot be removed, so it never drifts down.
	BookCount int `json:"book_count"`
}

// Touch updates the UpdatedAt timestamp to the current time.
func (a *Author) Touch() {
	a.UpdatedAt = time.Now()
}
