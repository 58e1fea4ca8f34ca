package auth

import (
	"context"

	"github.com/libraryapp/library-server/internal/domain"
)

type contextKey struct{}

var userKey contextKey

// ContextWithUser returns a context carrying the authenticated user.
func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, or nil for anonymous
// requests.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}
