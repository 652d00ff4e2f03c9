package httpserver

import (
	"errors"
	"net/http"

	"schema_diff_planner/internal/auth"
)

type AuthMiddleware struct {
	sessions *auth.SessionManager
	logger   requestLogger
}

func NewAuthMiddleware(sessions *auth.SessionManager, logger requestLogger) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, logger: logger}
}

// RequireSession admits only requests carrying a valid session cookie.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.sessions.GetSession(r)
		if err != nil {
			if !errors.Is(err, http.ErrNoCookie) {
				m.logger.Error("session decode failed", "error", err)
			}
			writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "authentication required")
			return
		}
		user := &auth.User{ID: session.UserID, Name: session.Name, Email: session.Email}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), user)))
	})
}
