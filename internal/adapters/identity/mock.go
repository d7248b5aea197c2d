package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/rsehgal/wayfarer/internal/domain"
)

// MockProvider is an in-memory identity provider for local mode and
// tests. Accounts live only as long as the process.
type MockProvider struct {
	mu       sync.Mutex
	accounts map[string]mockAccount // keyed by email
	current  *domain.Identity
	listener domain.AuthListener
}

type mockAccount struct {
	uid         domain.UserID
	password    string
	displayName string
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		accounts: make(map[string]mockAccount),
	}
}

func (m *MockProvider) Subscribe(l domain.AuthListener) func() {
	m.mu.Lock()
	m.listener = l
	ident := m.current
	m.mu.Unlock()

	if l != nil && ident != nil {
		l(context.Background(), ident)
	}

	return func() {
		m.mu.Lock()
		m.listener = nil
		m.mu.Unlock()
	}
}

func (m *MockProvider) SignUpWithEmail(ctx context.Context, email, password, displayName string) (*domain.Identity, error) {
	m.mu.Lock()
	if _, exists := m.accounts[email]; exists {
		m.mu.Unlock()
		return nil, &AuthError{Code: "EMAIL_EXISTS", Message: signUpMessages["EMAIL_EXISTS"]}
	}
	if len(password) < 6 {
		m.mu.Unlock()
		return nil, &AuthError{Code: "WEAK_PASSWORD", Message: signUpMessages["WEAK_PASSWORD"]}
	}

	acct := mockAccount{
		uid:         domain.UserID(uuid.NewString()),
		password:    password,
		displayName: displayName,
	}
	m.accounts[email] = acct
	m.mu.Unlock()

	ident := &domain.Identity{
		UID:         acct.uid,
		Email:       email,
		DisplayName: displayName,
		Provider:    domain.AuthProviderEmail,
	}
	m.publish(ctx, ident)
	return ident, nil
}

func (m *MockProvider) SignInWithEmail(ctx context.Context, email, password string) (*domain.Identity, error) {
	m.mu.Lock()
	acct, ok := m.accounts[email]
	m.mu.Unlock()

	if !ok {
		return nil, &AuthError{Code: "EMAIL_NOT_FOUND", Message: signInMessages["EMAIL_NOT_FOUND"]}
	}
	if acct.password != password {
		return nil, &AuthError{Code: "INVALID_PASSWORD", Message: signInMessages["INVALID_PASSWORD"]}
	}

	ident := &domain.Identity{
		UID:         acct.uid,
		Email:       email,
		DisplayName: acct.displayName,
		Provider:    domain.AuthProviderEmail,
	}
	m.publish(ctx, ident)
	return ident, nil
}

func (m *MockProvider) SignInWithGoogle(ctx context.Context, oauthIDToken string) (*domain.Identity, error) {
	ident := &domain.Identity{
		UID:           domain.UserID("google-" + uuid.NewString()),
		Email:         "mock@example.com",
		DisplayName:   "Mock Traveler",
		EmailVerified: true,
		Provider:      domain.AuthProviderGoogle,
	}
	m.publish(ctx, ident)
	return ident, nil
}

func (m *MockProvider) SendPasswordReset(ctx context.Context, email string) error {
	m.mu.Lock()
	_, ok := m.accounts[email]
	m.mu.Unlock()

	if !ok {
		return &AuthError{Code: "EMAIL_NOT_FOUND", Message: resetMessages["EMAIL_NOT_FOUND"]}
	}
	return nil
}

func (m *MockProvider) SignOut(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	l := m.listener
	m.mu.Unlock()

	if l != nil {
		l(ctx, nil)
	}
	return nil
}

func (m *MockProvider) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return "", &AuthError{Code: "NO_CURRENT_USER", Message: "No user is currently signed in"}
	}
	return fmt.Sprintf("mock-token-%s", m.current.UID), nil
}

func (m *MockProvider) publish(ctx context.Context, ident *domain.Identity) {
	m.mu.Lock()
	m.current = ident
	l := m.listener
	m.mu.Unlock()

	if l != nil {
		l(ctx, ident)
	}
}
