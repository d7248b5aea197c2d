package identity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rsehgal/wayfarer/internal/adapters/identity"
	"github.com/rsehgal/wayfarer/internal/domain"
)

// fakeToolkit emulates the Identity Toolkit endpoints used by the client.
func fakeToolkit(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected api key on %s", r.URL.Path)
		}

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch {
		case strings.HasSuffix(r.URL.Path, "accounts:signUp"):
			if body["email"] == "taken@example.com" {
				writeToolkitError(w, "EMAIL_EXISTS")
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"localId":      "uid-1",
				"email":        body["email"],
				"idToken":      "id-token-1",
				"refreshToken": "refresh-1",
				"expiresIn":    "3600",
			})

		case strings.HasSuffix(r.URL.Path, "accounts:signInWithPassword"):
			if body["password"] != "secret123" {
				writeToolkitError(w, "INVALID_LOGIN_CREDENTIALS")
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"localId":      "uid-1",
				"email":        body["email"],
				"displayName":  "Alex",
				"idToken":      "id-token-2",
				"refreshToken": "refresh-2",
				"expiresIn":    "3600",
			})

		case strings.HasSuffix(r.URL.Path, "accounts:update"):
			_ = json.NewEncoder(w).Encode(map[string]any{"localId": "uid-1"})

		case strings.HasSuffix(r.URL.Path, "accounts:sendOobCode"):
			if body["requestType"] == "PASSWORD_RESET" && body["email"] == "nobody@example.com" {
				writeToolkitError(w, "EMAIL_NOT_FOUND")
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{})

		case strings.HasSuffix(r.URL.Path, "accounts:signInWithIdp"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"localId":      "uid-google",
				"email":        "alex@gmail.com",
				"displayName":  "Alex G",
				"photoUrl":     "https://example.com/alex.png",
				"idToken":      "id-token-3",
				"refreshToken": "refresh-3",
				"expiresIn":    "3600",
			})

		default:
			t.Errorf("unexpected toolkit path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func writeToolkitError(w http.ResponseWriter, code string) {
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": code},
	})
}

func newTestClient(t *testing.T, srv *httptest.Server) *identity.ToolkitClient {
	t.Helper()
	c, err := identity.NewToolkitClient("test-key", identity.WithEndpoints(srv.URL, srv.URL))
	if err != nil {
		t.Fatalf("NewToolkitClient failed: %v", err)
	}
	return c
}

func TestNewToolkitClientRequiresKey(t *testing.T) {
	if _, err := identity.NewToolkitClient(""); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestSignUpNotifiesListener(t *testing.T) {
	srv := fakeToolkit(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	var notified *domain.Identity
	unsubscribe := c.Subscribe(func(ctx context.Context, ident *domain.Identity) {
		notified = ident
	})
	defer unsubscribe()

	ident, err := c.SignUpWithEmail(context.Background(), "alex@example.com", "secret123", "Alex")
	if err != nil {
		t.Fatalf("SignUpWithEmail failed: %v", err)
	}
	if ident.UID != "uid-1" || ident.DisplayName != "Alex" {
		t.Fatalf("unexpected identity: %+v", ident)
	}
	if notified == nil || notified.UID != "uid-1" {
		t.Fatalf("expected listener notification, got %+v", notified)
	}

	token, err := c.IDToken(context.Background(), false)
	if err != nil {
		t.Fatalf("IDToken failed: %v", err)
	}
	if token != "id-token-1" {
		t.Fatalf("expected cached token, got %q", token)
	}
}

func TestSignUpEmailExists(t *testing.T) {
	srv := fakeToolkit(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	_, err := c.SignUpWithEmail(context.Background(), "taken@example.com", "secret123", "")

	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Code != "EMAIL_EXISTS" {
		t.Fatalf("unexpected code %q", authErr.Code)
	}
	if authErr.Message != "This email is already registered. Please sign in instead." {
		t.Fatalf("unexpected message %q", authErr.Message)
	}
}

func TestSignInWrongPasswordMessage(t *testing.T) {
	srv := fakeToolkit(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	_, err := c.SignInWithEmail(context.Background(), "alex@example.com", "nope")

	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Message != "Incorrect password. Please try again." {
		t.Fatalf("unexpected message %q", authErr.Message)
	}
}

func TestSignInWithGoogleMarksVerified(t *testing.T) {
	srv := fakeToolkit(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	ident, err := c.SignInWithGoogle(context.Background(), "oauth-token")
	if err != nil {
		t.Fatalf("SignInWithGoogle failed: %v", err)
	}
	if !ident.EmailVerified {
		t.Fatalf("expected google identity to be verified")
	}
	if ident.Provider != domain.AuthProviderGoogle {
		t.Fatalf("unexpected provider %q", ident.Provider)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	srv := fakeToolkit(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	err := c.SendPasswordReset(context.Background(), "nobody@example.com")

	var authErr *identity.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Message != "No account found with this email." {
		t.Fatalf("unexpected message %q", authErr.Message)
	}
}

func TestSignOutClearsTokenAndNotifies(t *testing.T) {
	srv := fakeToolkit(t)
	defer srv.Close()
	c := newTestClient(t, srv)

	signedOut := false
	unsubscribe := c.Subscribe(func(ctx context.Context, ident *domain.Identity) {
		if ident == nil {
			signedOut = true
		}
	})
	defer unsubscribe()

	if _, err := c.SignInWithEmail(context.Background(), "alex@example.com", "secret123"); err != nil {
		t.Fatalf("SignInWithEmail failed: %v", err)
	}
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	if !signedOut {
		t.Fatalf("expected signed-out notification")
	}
	if _, err := c.IDToken(context.Background(), false); err == nil {
		t.Fatalf("expected IDToken to fail after sign-out")
	}
}
