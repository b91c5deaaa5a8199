package authsvc

import (
	"context"
	"errors"
)

type contextKey string

// UserIDContextKey holds the uint64 identity resolved from a bearer token.
const UserIDContextKey contextKey = "UserID"

// UserID returns the authenticated identity stored in ctx.
func UserID(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(UserIDContextKey).(uint64)
	return id, ok && id != 0
}

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUserIDContextMissing = errors.New("user ID was not passed through the context")
)
