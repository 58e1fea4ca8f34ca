package auth

import (
	"time"
)

// Claims represents the identity carried by an access token.
// Tokens are v4.local, so claims are encrypted and not readable without
// the server key.
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"id"`

	// Standard PASETO claims
	Issuer   string    `json:"iss"`
	Subject  string    `json:"sub"`
	Audience string    `json:"aud"`
	IssuedAt time.Time `json:"iat"`
	TokenID  string    `json:"jti"`
}
