package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func testKey() []byte {
	return bytes.Repeat([]byte("k"), 32)
}

func TestSessionRoundTrip(t *testing.T) {
	manager := NewSessionManager(testKey())

	rec := httptest.NewRecorder()
	session := Session{UserID: uuid.New(), Name: "Sam", Email: "sam@example.com"}
	if err := manager.SetSession(rec, session); err != nil {
		t.Fatalf("SetSession: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName {
		t.Fatalf("cookies = %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie must be http-only")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	got, err := manager.GetSession(req)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Email != session.Email || got.UserID != session.UserID {
		t.Errorf("session = %+v, want %+v", got, session)
	}
}

func TestGetSessionRejectsTamperedCookie(t *testing.T) {
	manager := NewSessionManager(testKey())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})

	if _, err := manager.GetSession(req); err == nil {
		t.Fatal("expected error for tampered cookie")
	}
}

func TestGetSessionRejectsForeignKey(t *testing.T) {
	issuer := NewSessionManager(testKey())
	verifier := NewSessionManager(bytes.Repeat([]byte("x"), 32))

	rec := httptest.NewRecorder()
	if err := issuer.SetSession(rec, Session{UserID: uuid.New(), Email: "a@b"}); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	if _, err := verifier.GetSession(req); err == nil {
		t.Fatal("cookie signed with another key must not verify")
	}
}

func TestHeaderAuthenticator(t *testing.T) {
	authn := NewHeaderAuthenticator(true)

	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	req.Header.Set("X-Planner-Email", "sam@example.com")
	req.Header.Set("X-Planner-Name", "Sam")

	user, err := authn.Authenticate(req)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.Email != "sam@example.com" || user.Name != "Sam" {
		t.Errorf("user = %+v", user)
	}

	if _, err := authn.Authenticate(httptest.NewRequest(http.MethodPost, "/session", nil)); err != ErrUnauthorized {
		t.Errorf("missing email header: err = %v, want ErrUnauthorized", err)
	}

	disabled := NewHeaderAuthenticator(false)
	if _, err := disabled.Authenticate(req); err != ErrUnauthorized {
		t.Errorf("disabled authenticator: err = %v, want ErrUnauthorized", err)
	}
}

func TestUserContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	if _, ok := UserFromContext(req.Context()); ok {
		t.Error("empty context must not hold a user")
	}

	user := &User{ID: uuid.New(), Email: "sam@example.com"}
	ctx := WithUser(req.Context(), user)
	got, ok := UserFromContext(ctx)
	if !ok || got.Email != user.Email {
		t.Errorf("got %+v, ok=%v", got, ok)
	}
}
