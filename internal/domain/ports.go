package domain

import (
	"context"
	"errors"
)

// Not-found sentinels shared by all store implementations.
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrItineraryNotFound = errors.New("itinerary not found")
	ErrBookingNotFound   = errors.New("booking not found")
)

// LLMClient defines how the planner core interacts with an LLM service.
type LLMClient interface {
	GenerateReply(ctx context.Context, prompt string, convCtx ConversationContext) (string, error)
}

// ConversationContext gives the LLM minimal context about the conversation.
type ConversationContext struct {
	SessionID   SessionID
	UserID      UserID
	Preferences *Preferences
	History     []*Message // last N interactions
}

// SessionStore defines session persistence.
type SessionStore interface {
	CreateSession(session *Session) error
	UpdateSession(session *Session) error
	GetSession(id SessionID) (*Session, error)
	ListSessionsByUser(userID UserID, limit int) ([]*Session, error)
	CountSessions() (int, error)
}

// MessageStore defines message persistence.
type MessageStore interface {
	AppendMessage(msg *Message) error
	GetMessagesBySession(sessionID SessionID, limit int) ([]*Message, error)
}

// ProfileStore defines users/{id} document persistence.
type ProfileStore interface {
	// GetProfile returns ErrProfileNotFound when no document exists.
	GetProfile(ctx context.Context, id UserID) (*UserProfile, error)
	CreateProfile(ctx context.Context, profile *UserProfile) error
	UpdateLastLogin(ctx context.Context, id UserID) error
	UpdatePreferences(ctx context.Context, id UserID, prefs Preferences) error
	IncrementStat(ctx context.Context, id UserID, stat string, delta int64) error
}

// AuthListener receives identity state-change notifications. A nil
// identity means "signed out".
type AuthListener func(ctx context.Context, ident *Identity)

// IdentityProvider is the external service issuing verified user
// identity and tokens.
type IdentityProvider interface {
	// Subscribe registers the single state-change listener for the
	// lifetime of the application and returns an unsubscribe func.
	Subscribe(l AuthListener) (unsubscribe func())

	SignInWithGoogle(ctx context.Context, oauthIDToken string) (*Identity, error)
	SignUpWithEmail(ctx context.Context, email, password, displayName string) (*Identity, error)
	SignInWithEmail(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
	SendPasswordReset(ctx context.Context, email string) error

	// IDToken returns a token for the signed-in user, optionally
	// forcing a refresh.
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
}
