package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/libraryapp/library-server/internal/auth"
	"github.com/libraryapp/library-server/internal/domain"
	domainerrors "github.com/libraryapp/library-server/internal/errors"
	"github.com/libraryapp/library-server/internal/id"
	"github.com/libraryapp/library-server/internal/ratelimit"
	"github.com/libraryapp/library-server/internal/store"
)

// Login attempt budget per username. Tokens refill at loginRPS once the
// burst is spent.
const (
	loginRPS   = 0.5
	loginBurst = 10
)

// AuthService handles account creation, login, and token verification.
//
// Accounts carry no individual password. Every login is checked against a
// single server-wide secret injected through configuration, so the service
// stores one Argon2id hash computed at startup.
type AuthService struct {
	store        *store.Store
	tokenService *auth.TokenService
	loginLimiter *ratelimit.KeyedRateLimiter
	passwordHash string
	logger       *slog.Logger
}

// NewAuthService creates a new authentication service. sharedPassword is
// the server-wide login secret; it is hashed once and the plaintext is not
// retained.
func NewAuthService(
	store *store.Store,
	tokenService *auth.TokenService,
	sharedPassword string,
	logger *slog.Logger,
) (*AuthService, error) {
	passwordHash, err := auth.HashPassword(sharedPassword)
	if err != nil {
		return nil, fmt.Errorf("hash shared password: %w", err)
	}
	return &AuthService{
		store:        store,
		tokenService: tokenService,
		loginLimiter: ratelimit.New(loginRPS, loginBurst),
		passwordHash: passwordHash,
		logger:       logger,
	}, nil
}

// CreateUserRequest contains the data for a new account.
type CreateUserRequest struct {
	Username      string `json:"username" validate:"required,min=3,max=64"`
	FavoriteGenre string `json:"favoriteGenre" validate:"required"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the issued token and the authenticated user.
type LoginResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// CreateUser registers a new account. Usernames are unique; a collision
// fails with a user input error and writes nothing.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		CreatedAt:     time.Now(),
		ID:            userID,
		Username:      req.Username,
		FavoriteGenre: req.FavoriteGenre,
	}

	if err := s.store.Users.Create(ctx, userID, user); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.BadUserInput("username already taken").
				WithDetails(map[string]string{"username": req.Username}).
				WithCause(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User created",
			"user_id", userID,
			"username", user.Username,
		)
	}

	return user, nil
}

// Login authenticates a user and issues a signed token. An unknown
// username and a wrong password produce the same error so account
// existence does not leak.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if !s.loginLimiter.Allow(req.Username) {
		if s.logger != nil {
			s.logger.Warn("Login rate limit hit", "username", req.Username)
		}
		return nil, domainerrors.BadUserInput("too many login attempts, try again later")
	}

	user, err := s.store.Users.GetByIndex(ctx, "username", req.Username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.BadUserInput("wrong credentials")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(s.passwordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.BadUserInput("wrong credentials")
	}

	token, err := s.tokenService.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("User logged in",
			"user_id", user.ID,
			"username", user.Username,
		)
	}

	return &LoginResponse{User: user, Token: token}, nil
}

// Authenticate verifies a token and returns the account it was issued to.
// Used by the authentication middleware.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*domain.User, error) {
	claims, err := s.tokenService.Verify(tokenString)
	if err != nil {
		return nil, domainerrors.Unauthenticated("invalid or expired token").WithCause(err)
	}

	user, err := s.store.Users.Get(ctx, claims.UserID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthenticated("token refers to unknown user")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}
