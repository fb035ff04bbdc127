package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"quantdash/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := storage.New(filepath.Join(t.TempDir(), "test.db"), logger)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	return NewService(st, 7*24*time.Hour, false, logger)
}

func TestSignUpAndSignIn(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.SignUp(ctx, "alice@example.com", "secret123", "Alice")
	if err != nil {
		t.Fatalf("sign up failed: %v", err)
	}
	if user.ID == 0 {
		t.Error("expected user ID to be assigned")
	}
	if user.Theme != "dark" {
		t.Errorf("expected default theme dark, got %q", user.Theme)
	}

	signedIn, err := service.SignIn(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if signedIn.ID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, signedIn.ID)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.SignUp(ctx, "bob@example.com", "secret123", "Bob"); err != nil {
		t.Fatalf("sign up failed: %v", err)
	}

	_, err := service.SignUp(ctx, "bob@example.com", "other456", "Bob Again")
	if !errors.Is(err, ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	if _, err := service.SignUp(ctx, "carol@example.com", "secret123", "Carol"); err != nil {
		t.Fatalf("sign up failed: %v", err)
	}

	_, err := service.SignIn(ctx, "carol@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	service := newTestService(t)

	// Неизвестный email и неверный пароль дают одну и ту же ошибку
	_, err := service.SignIn(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestPasswordNotStoredInPlaintext(t *testing.T) {
	service := newTestService(t)

	user, err := service.SignUp(context.Background(), "dave@example.com", "secret123", "Dave")
	if err != nil {
		t.Fatalf("sign up failed: %v", err)
	}

	if user.PasswordHash == "secret123" {
		t.Error("password stored in plaintext")
	}
	if err := service.VerifyPassword(user.PasswordHash, "secret123"); err != nil {
		t.Errorf("expected hash to verify: %v", err)
	}
}

func TestSessionCookieRoundTrip(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	user, err := service.SignUp(ctx, "erin@example.com", "secret123", "Erin")
	if err != nil {
		t.Fatalf("sign up failed: %v", err)
	}

	recorder := httptest.NewRecorder()
	if err := service.IssueSession(recorder, user.ID); err != nil {
		t.Fatalf("failed to issue session: %v", err)
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}

	for _, cookie := range cookies {
		if !cookie.HttpOnly {
			t.Errorf("expected cookie %s to be HttpOnly", cookie.Name)
		}
		if cookie.Path != "/" {
			t.Errorf("expected cookie %s path /, got %s", cookie.Name, cookie.Path)
		}
	}

	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}

	session := service.SessionFromRequest(request)
	if session == nil {
		t.Fatal("expected session to be restored from cookies")
	}
	if session.ID != user.ID || session.Email != user.Email {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestSessionMissingCookies(t *testing.T) {
	service := newTestService(t)

	request := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if session := service.SessionFromRequest(request); session != nil {
		t.Error("expected nil session without cookies")
	}
}

func TestClearSession(t *testing.T) {
	service := newTestService(t)

	recorder := httptest.NewRecorder()
	service.ClearSession(recorder)

	cookies := recorder.Result().Cookies()
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}

	for _, cookie := range cookies {
		if cookie.MaxAge != -1 {
			t.Errorf("expected cookie %s to be expired, MaxAge = %d", cookie.Name, cookie.MaxAge)
		}
	}
}

func TestHasSessionCookie(t *testing.T) {
	request := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if HasSessionCookie(request) {
		t.Error("expected no session cookie")
	}

	request.AddCookie(&http.Cookie{Name: SessionCookie, Value: "whatever"})
	if !HasSessionCookie(request) {
		t.Error("expected session cookie to be detected")
	}
}

func TestNewSessionTokenLengthAndUniqueness(t *testing.T) {
	first, err := NewSessionToken()
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	second, _ := NewSessionToken()

	if len(first) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(first))
	}
	if first == second {
		t.Error("expected tokens to differ")
	}
}
