package auth

import (
	"encoding/json/v2"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/libraryapp/library-server/internal/domain"
	"github.com/libraryapp/library-server/internal/id"
)

const (
	tokenIssuer   = "library-server"
	tokenAudience = "library-client"

	// PASETO v4 symmetric key requirement.
	keyBytesSize = 32 // 256 bits
)

// TokenService signs and verifies PASETO access tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	// duration is the token lifetime. Zero means no expiry claim is set,
	// matching the tokens existing clients already hold.
	duration time.Duration
}

// NewTokenService creates a token service from a raw 32-byte key.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != keyBytesSize {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyBytesSize, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: symmetricKey,
		duration:     duration,
	}, nil
}

// Issue creates a new v4.local access token carrying the user's identity.
func (s *TokenService) Issue(user *domain.User) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(user.ID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	if s.duration > 0 {
		token.SetExpiration(now.Add(s.duration))
	}

	tokenID, err := id.Generate("token")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	// Identity claims resolved back to a user on every request.
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("username", user.Username)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("id", user.ID)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify parses and verifies an access token.
// Returns the claims if valid, or an error if the token is malformed,
// tampered with, or expired.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	if s.duration > 0 {
		parser.AddRule(paseto.NotExpired())
		parser.AddRule(paseto.ValidAt(time.Now()))
	}

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims Claims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &claims, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}
