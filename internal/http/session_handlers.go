package httpserver

import (
	"errors"
	"net/http"

	"schema_diff_planner/internal/auth"
)

type SessionHandler struct {
	authn    auth.Authenticator
	sessions *auth.SessionManager
	logger   requestLogger
}

func NewSessionHandler(authn auth.Authenticator, sessions *auth.SessionManager, logger requestLogger) *SessionHandler {
	return &SessionHandler{authn: authn, sessions: sessions, logger: logger}
}

// Login authenticates the request and issues a session cookie.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	user, err := h.authn.Authenticate(r)
	if err != nil {
		if !errors.Is(err, auth.ErrUnauthorized) {
			h.logger.Error("authentication failed", "error", err)
		}
		writeError(w, r, http.StatusUnauthorized, codeUnauthorized, "authentication required")
		return
	}
	session := auth.Session{UserID: user.ID, Name: user.Name, Email: user.Email}
	if err := h.sessions.SetSession(w, session); err != nil {
		h.logger.Error("session encode failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, codeSessionError, "could not issue session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
	})
}

// Logout clears the session cookie.
func (h *SessionHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.sessions.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}
