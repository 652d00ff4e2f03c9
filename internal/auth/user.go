package auth

import (
	"context"

	"github.com/google/uuid"
)

// User identifies the operator behind a request.
type User struct {
	ID    uuid.UUID
	Name  string
	Email string
}

type contextKey string

const userKey contextKey = "planner-user"

func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	val := ctx.Value(userKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*User)
	return user, ok
}
