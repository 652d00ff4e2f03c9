package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const SessionCookieName = "planner_session"

// Session is the payload carried in the signed session cookie.
type Session struct {
	UserID uuid.UUID
	Name   string
	Email  string
}

// SessionManager signs and verifies session cookies.
type SessionManager struct {
	cookie *securecookie.SecureCookie
}

func NewSessionManager(secretKey []byte) *SessionManager {
	sc := securecookie.New(secretKey, secretKey)
	sc.MaxAge(int((24 * time.Hour).Seconds()))
	sc.SetSerializer(securecookie.JSONEncoder{})
	return &SessionManager{cookie: sc}
}

func (s *SessionManager) SetSession(w http.ResponseWriter, session Session) error {
	encoded, err := s.cookie.Encode(SessionCookieName, session)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *SessionManager) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *SessionManager) GetSession(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, err
	}
	var session Session
	if err := s.cookie.Decode(SessionCookieName, cookie.Value, &session); err != nil {
		return nil, err
	}
	return &session, nil
}
