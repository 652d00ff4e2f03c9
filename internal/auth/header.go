package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

var ErrUnauthorized = errors.New("unauthorized")

type Authenticator interface {
	Authenticate(r *http.Request) (*User, error)
}

// HeaderAuthenticator trusts identity headers set by a fronting proxy.
// It backs the session login endpoint; disable it and no session can be
// issued.
type HeaderAuthenticator struct {
	enabled bool
}

func NewHeaderAuthenticator(enabled bool) *HeaderAuthenticator {
	return &HeaderAuthenticator{enabled: enabled}
}

func (a *HeaderAuthenticator) Authenticate(r *http.Request) (*User, error) {
	if !a.enabled {
		return nil, ErrUnauthorized
	}
	email := strings.TrimSpace(r.Header.Get("X-Planner-Email"))
	name := strings.TrimSpace(r.Header.Get("X-Planner-Name"))
	if email == "" {
		return nil, ErrUnauthorized
	}
	return &User{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
	}, nil
}
