package domain

import "time"

// User represents a reader account. Accounts carry no individual password;
// login is checked against the server-wide shared secret.
type User struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	FavoriteGenre string    `json:"favorite_genre"`
}
