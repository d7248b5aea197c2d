package authstate_test

import (
	"context"
	"testing"

	"github.com/rsehgal/wayfarer/internal/adapters/identity"
	"github.com/rsehgal/wayfarer/internal/adapters/storage/memory"
	"github.com/rsehgal/wayfarer/internal/app/authstate"
	"github.com/rsehgal/wayfarer/internal/domain"
)

type recordingNotifier struct {
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) { n.successes = append(n.successes, msg) }
func (n *recordingNotifier) Error(msg string)   { n.errors = append(n.errors, msg) }

func newTestAuth() (*authstate.Service, *identity.MockProvider, *memory.ProfileStore, *recordingNotifier) {
	idp := identity.NewMockProvider()
	profiles := memory.NewProfileStore()
	notifier := &recordingNotifier{}
	svc := authstate.NewService(idp, profiles, notifier)
	return svc, idp, profiles, notifier
}

func TestFirstSignInCreatesProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, profiles, _ := newTestAuth()
	defer svc.Close()

	if svc.IsAuthenticated() {
		t.Fatalf("expected signed-out start")
	}

	if err := svc.SignUpWithEmail(ctx, "alex@example.com", "secret123", "Alex"); err != nil {
		t.Fatalf("SignUpWithEmail failed: %v", err)
	}

	user := svc.CurrentUser()
	if user == nil {
		t.Fatalf("expected a published user after sign-up")
	}
	if user.Name != "Alex" {
		t.Fatalf("expected name Alex, got %q", user.Name)
	}
	if user.Token == "" {
		t.Fatalf("expected a token on the published user")
	}

	profile, err := profiles.GetProfile(ctx, user.ID)
	if err != nil {
		t.Fatalf("expected profile to exist: %v", err)
	}
	if profile.Preferences.Budget != "moderate" {
		t.Fatalf("expected default budget moderate, got %q", profile.Preferences.Budget)
	}
	if profile.Preferences.DefaultGroupSize != 1 {
		t.Fatalf("expected default group size 1, got %d", profile.Preferences.DefaultGroupSize)
	}
	if profile.Stats.MessagesExchanged != 0 || profile.Stats.TripsPlanned != 0 {
		t.Fatalf("expected zeroed stats, got %+v", profile.Stats)
	}
}

func TestSignInWithoutDisplayNameFallsBack(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestAuth()
	defer svc.Close()

	if err := svc.SignUpWithEmail(ctx, "anon@example.com", "secret123", ""); err != nil {
		t.Fatalf("SignUpWithEmail failed: %v", err)
	}

	user := svc.CurrentUser()
	if user == nil {
		t.Fatalf("expected a published user")
	}
	if user.Name != domain.DefaultDisplayName {
		t.Fatalf("expected fallback name %q, got %q", domain.DefaultDisplayName, user.Name)
	}
}

func TestRepeatSignInKeepsProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, profiles, _ := newTestAuth()
	defer svc.Close()

	if err := svc.SignUpWithEmail(ctx, "alex@example.com", "secret123", "Alex"); err != nil {
		t.Fatalf("SignUpWithEmail failed: %v", err)
	}
	userID := svc.CurrentUser().ID

	before, err := profiles.GetProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}

	if err := svc.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	if svc.CurrentUser() != nil {
		t.Fatalf("expected nil user after sign-out")
	}

	if err := svc.SignInWithEmail(ctx, "alex@example.com", "secret123"); err != nil {
		t.Fatalf("SignInWithEmail failed: %v", err)
	}

	after, err := profiles.GetProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("expected existing profile to be kept, createdAt changed")
	}
	if after.LastLoginAt.Before(before.LastLoginAt) {
		t.Fatalf("expected last login to move forward")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _, _, notifier := newTestAuth()
	defer svc.Close()

	if err := svc.SignUpWithEmail(ctx, "alex@example.com", "secret123", "Alex"); err != nil {
		t.Fatalf("SignUpWithEmail failed: %v", err)
	}
	if err := svc.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	err := svc.SignInWithEmail(ctx, "alex@example.com", "wrong")
	if err == nil {
		t.Fatalf("expected sign-in to fail")
	}
	if svc.CurrentUser() != nil {
		t.Fatalf("expected no published user after failed sign-in")
	}
	if len(notifier.errors) == 0 {
		t.Fatalf("expected an error notification")
	}
	if notifier.errors[len(notifier.errors)-1] != "Incorrect password. Please try again." {
		t.Fatalf("unexpected error message: %q", notifier.errors[len(notifier.errors)-1])
	}
}

func TestUpdatePreferencesWritesThrough(t *testing.T) {
	ctx := context.Background()
	svc, _, profiles, _ := newTestAuth()
	defer svc.Close()

	if err := svc.SignUpWithEmail(ctx, "alex@example.com", "secret123", "Alex"); err != nil {
		t.Fatalf("SignUpWithEmail failed: %v", err)
	}
	userID := svc.CurrentUser().ID

	prefs := domain.DefaultPreferences()
	prefs.Budget = "luxury"
	prefs.Interests = []string{"food", "museums"}

	if err := svc.UpdatePreferences(ctx, prefs); err != nil {
		t.Fatalf("UpdatePreferences failed: %v", err)
	}

	stored, err := profiles.GetProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if stored.Preferences.Budget != "luxury" {
		t.Fatalf("expected stored budget luxury, got %q", stored.Preferences.Budget)
	}

	published := svc.CurrentUser()
	if published.Profile.Preferences.Budget != "luxury" {
		t.Fatalf("expected published budget luxury, got %q", published.Profile.Preferences.Budget)
	}
}

func TestUpdatePreferencesRequiresUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestAuth()
	defer svc.Close()

	err := svc.UpdatePreferences(ctx, domain.DefaultPreferences())
	if err != authstate.ErrNotSignedIn {
		t.Fatalf("expected ErrNotSignedIn, got %v", err)
	}
}

func TestWatchReceivesPublishedUsers(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestAuth()
	defer svc.Close()

	ch, cancel := svc.Watch()
	defer cancel()

	if err := svc.SignUpWithEmail(ctx, "alex@example.com", "secret123", "Alex"); err != nil {
		t.Fatalf("SignUpWithEmail failed: %v", err)
	}

	select {
	case user := <-ch:
		if user == nil || user.Name != "Alex" {
			t.Fatalf("expected published Alex, got %+v", user)
		}
	default:
		t.Fatalf("expected a buffered update on the watch channel")
	}
}
