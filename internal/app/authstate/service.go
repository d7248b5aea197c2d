// Package authstate maintains process-wide knowledge of who, if anyone,
// is currently signed in, backed by the identity provider and the
// profile store.
package authstate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

// Notifier mirrors outcomes to a transient user-visible surface
// (the web product shows these as toasts).
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type logNotifier struct{}

func (logNotifier) Success(msg string) { observability.Component("authstate").Info(msg) }
func (logNotifier) Error(msg string)   { observability.Component("authstate").Warn(msg) }

// LogNotifier reports notifications through the structured log only.
func LogNotifier() Notifier { return logNotifier{} }

// Service subscribes once to identity state changes, ensures a profile
// document exists for every signed-in identity, and publishes the
// merged current user.
//
// Overlapping imperative calls are not guarded; the last write to the
// published user wins.
type Service struct {
	idp      domain.IdentityProvider
	profiles domain.ProfileStore
	notifier Notifier
	now      func() time.Time

	mu       sync.RWMutex
	current  *domain.CurrentUser
	lastErr  error
	watchers map[int]chan *domain.CurrentUser
	nextID   int

	unsubscribe func()
}

func NewService(idp domain.IdentityProvider, profiles domain.ProfileStore, notifier Notifier) *Service {
	if notifier == nil {
		notifier = LogNotifier()
	}

	s := &Service{
		idp:      idp,
		profiles: profiles,
		notifier: notifier,
		now:      time.Now,
		watchers: make(map[int]chan *domain.CurrentUser),
	}

	// One subscription for the lifetime of the application.
	s.unsubscribe = idp.Subscribe(s.handleAuthChange)
	return s
}

// Close detaches from the identity provider and closes watcher channels.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.watchers {
		close(ch)
		delete(s.watchers, id)
	}
}

// CurrentUser returns the published user, nil when signed out.
func (s *Service) CurrentUser() *domain.CurrentUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// IsAuthenticated reports whether a user is currently published.
func (s *Service) IsAuthenticated() bool {
	return s.CurrentUser() != nil
}

// LastError returns the most recent bootstrap error, if any.
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Watch returns a channel receiving every published user change and a
// cancel func. The channel is buffered; a slow consumer drops updates
// rather than blocking the bootstrap.
func (s *Service) Watch() (<-chan *domain.CurrentUser, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan *domain.CurrentUser, 8)
	s.watchers[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.watchers[id]; ok {
			close(c)
			delete(s.watchers, id)
		}
	}
	return ch, cancel
}

// ─────────────────────────────────────────────
// State-change handling
// ─────────────────────────────────────────────

func (s *Service) handleAuthChange(ctx context.Context, ident *domain.Identity) {
	log := observability.LoggerFromContext(ctx).With("component", "authstate")

	if ident == nil {
		log.Info("user signed out")
		s.publish(nil)
		return
	}

	log = log.With("user_id", ident.UID, "email", ident.Email)
	log.Info("user authenticated")

	token, err := s.idp.IDToken(ctx, false)
	if err != nil {
		log.Error("failed to get token", "error", err)
		s.fail(err)
		return
	}

	profile, err := s.profiles.GetProfile(ctx, ident.UID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		log.Info("new user detected, creating profile")
		if err := s.profiles.CreateProfile(ctx, domain.NewProfile(*ident, s.now())); err != nil {
			log.Error("failed to create profile", "error", err)
			s.fail(err)
			return
		}
		// Re-read for server-assigned timestamps.
		profile, err = s.profiles.GetProfile(ctx, ident.UID)
		if err != nil {
			log.Error("failed to read created profile", "error", err)
			s.fail(err)
			return
		}
	case err != nil:
		log.Error("failed to load profile", "error", err)
		s.fail(err)
		return
	default:
		// Existing user: touch last login only. Not critical.
		if err := s.profiles.UpdateLastLogin(ctx, ident.UID); err != nil {
			log.Error("failed to update last login", "error", err)
		}
	}

	s.publish(domain.MergeCurrentUser(*ident, profile, token))
}

func (s *Service) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.notifier.Error("Authentication error. Please try again.")
}

func (s *Service) publish(user *domain.CurrentUser) {
	s.mu.Lock()
	s.current = user
	s.lastErr = nil
	for _, ch := range s.watchers {
		select {
		case ch <- user:
		default:
		}
	}
	s.mu.Unlock()
}

// ─────────────────────────────────────────────
// Imperative operations
// ─────────────────────────────────────────────

func (s *Service) SignInWithGoogle(ctx context.Context, oauthIDToken string) error {
	if _, err := s.idp.SignInWithGoogle(ctx, oauthIDToken); err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	s.notifier.Success("Welcome back!")
	return nil
}

func (s *Service) SignUpWithEmail(ctx context.Context, email, password, displayName string) error {
	if _, err := s.idp.SignUpWithEmail(ctx, email, password, displayName); err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	s.notifier.Success("Account created! Please verify your email.")
	return nil
}

func (s *Service) SignInWithEmail(ctx context.Context, email, password string) error {
	if _, err := s.idp.SignInWithEmail(ctx, email, password); err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	s.notifier.Success("Welcome back!")
	return nil
}

func (s *Service) SignOut(ctx context.Context) error {
	if err := s.idp.SignOut(ctx); err != nil {
		s.notifier.Error("Failed to sign out")
		return err
	}
	s.publish(nil)
	s.notifier.Success("Signed out successfully")
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if err := s.idp.SendPasswordReset(ctx, email); err != nil {
		s.notifier.Error(err.Error())
		return err
	}
	s.notifier.Success("Password reset email sent!")
	return nil
}

// ErrNotSignedIn is returned by operations that need a current user.
var ErrNotSignedIn = errors.New("no user signed in")

// UpdatePreferences writes through to the store, then updates the
// published user. The published copy only changes after the write
// succeeds, so a failure leaves local state consistent.
func (s *Service) UpdatePreferences(ctx context.Context, prefs domain.Preferences) error {
	user := s.CurrentUser()
	if user == nil {
		return ErrNotSignedIn
	}

	if err := s.profiles.UpdatePreferences(ctx, user.ID, prefs); err != nil {
		s.notifier.Error("Failed to update preferences")
		return err
	}

	s.mu.Lock()
	if s.current != nil && s.current.Profile != nil {
		updated := *s.current
		profile := *s.current.Profile
		profile.Preferences = prefs
		updated.Profile = &profile
		s.current = &updated
		for _, ch := range s.watchers {
			select {
			case ch <- s.current:
			default:
			}
		}
	}
	s.mu.Unlock()

	s.notifier.Success("Preferences updated")
	return nil
}

// Token returns a fresh token for the signed-in user.
func (s *Service) Token(ctx context.Context, forceRefresh bool) (string, error) {
	return s.idp.IDToken(ctx, forceRefresh)
}
