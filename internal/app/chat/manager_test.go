package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rsehgal/wayfarer/internal/adapters/identity"
	"github.com/rsehgal/wayfarer/internal/adapters/storage/memory"
	"github.com/rsehgal/wayfarer/internal/app/authstate"
	"github.com/rsehgal/wayfarer/internal/app/chat"
	"github.com/rsehgal/wayfarer/internal/domain"
)

// fakePlanner is a scriptable domain.PlannerClient.
type fakePlanner struct {
	startCalls int
	sendCalls  int

	startErr error
	sendErr  error

	reply   *domain.AgentReply
	history []*domain.Message
}

func (f *fakePlanner) StartSession(ctx context.Context, userID domain.UserID) (domain.SessionID, error) {
	f.startCalls++
	if f.startErr != nil {
		return "", f.startErr
	}
	return domain.SessionID("session-1"), nil
}

func (f *fakePlanner) SendMessage(ctx context.Context, sessionID domain.SessionID, userID domain.UserID, text string) (*domain.AgentReply, error) {
	f.sendCalls++
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if f.reply != nil {
		return f.reply, nil
	}
	return &domain.AgentReply{
		MessageID:   domain.MessageID("msg-1"),
		Text:        "How about Lisbon?",
		Timestamp:   time.Now(),
		Suggestions: []string{"Show me more destinations"},
	}, nil
}

func (f *fakePlanner) History(ctx context.Context, sessionID domain.SessionID) ([]*domain.Message, error) {
	return f.history, nil
}

func signedInAuth(t *testing.T) *authstate.Service {
	t.Helper()
	auth := authstate.NewService(identity.NewMockProvider(), memory.NewProfileStore(), nil)
	t.Cleanup(auth.Close)
	if err := auth.SignUpWithEmail(context.Background(), "alex@example.com", "secret123", "Alex"); err != nil {
		t.Fatalf("sign-up failed: %v", err)
	}
	return auth
}

func signedOutAuth(t *testing.T) *authstate.Service {
	t.Helper()
	auth := authstate.NewService(identity.NewMockProvider(), memory.NewProfileStore(), nil)
	t.Cleanup(auth.Close)
	return auth
}

func TestStartSessionRequiresUser(t *testing.T) {
	ctx := context.Background()
	api := &fakePlanner{}
	mgr := chat.NewManager(api, signedOutAuth(t))

	if err := mgr.StartSession(ctx); err != nil {
		t.Fatalf("StartSession returned error: %v", err)
	}
	if api.startCalls != 0 {
		t.Fatalf("expected no network call without a user, got %d", api.startCalls)
	}
	if mgr.SessionID() != "" {
		t.Fatalf("expected empty session id, got %q", mgr.SessionID())
	}
}

func TestStartSessionResetsTranscript(t *testing.T) {
	ctx := context.Background()
	api := &fakePlanner{}
	mgr := chat.NewManager(api, signedInAuth(t))

	if err := mgr.StartSession(ctx); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := mgr.SendMessage(ctx, "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(mgr.Transcript()) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(mgr.Transcript()))
	}

	if err := mgr.StartSession(ctx); err != nil {
		t.Fatalf("second StartSession failed: %v", err)
	}
	if len(mgr.Transcript()) != 0 {
		t.Fatalf("expected empty transcript after new session")
	}
	if len(mgr.Suggestions()) != 0 {
		t.Fatalf("expected empty suggestions after new session")
	}
}

func TestSendMessageAppendsUserAndAgent(t *testing.T) {
	ctx := context.Background()
	api := &fakePlanner{}
	mgr := chat.NewManager(api, signedInAuth(t))

	if err := mgr.StartSession(ctx); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := mgr.SendMessage(ctx, "I want a beach trip"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	msgs := mgr.Transcript()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Author != domain.RoleUser || msgs[0].Text != "I want a beach trip" {
		t.Fatalf("unexpected user message: %+v", msgs[0])
	}
	if msgs[1].Author != domain.RoleAgent || msgs[1].ID != "msg-1" {
		t.Fatalf("unexpected agent message: %+v", msgs[1])
	}
	if got := mgr.Suggestions(); len(got) != 1 || got[0] != "Show me more destinations" {
		t.Fatalf("unexpected suggestions: %v", got)
	}
}

func TestSendMessageFailureAppendsApology(t *testing.T) {
	ctx := context.Background()
	api := &fakePlanner{}
	mgr := chat.NewManager(api, signedInAuth(t))

	if err := mgr.StartSession(ctx); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := mgr.SendMessage(ctx, "first"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	before := mgr.Suggestions()

	api.sendErr = errors.New("boom")
	if err := mgr.SendMessage(ctx, "second"); err == nil {
		t.Fatalf("expected SendMessage to return the error")
	}

	msgs := mgr.Transcript()
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if !last.IsError || last.Author != domain.RoleAgent {
		t.Fatalf("expected synthetic agent error message, got %+v", last)
	}
	if last.Text != "Sorry, I encountered an error. Please try again." {
		t.Fatalf("unexpected error text: %q", last.Text)
	}

	// The optimistic user message stays in the transcript.
	if msgs[2].Author != domain.RoleUser || msgs[2].Text != "second" {
		t.Fatalf("expected optimistic user message to remain: %+v", msgs[2])
	}

	// Suggestions are untouched by failures.
	after := mgr.Suggestions()
	if len(after) != len(before) {
		t.Fatalf("expected suggestions unchanged, had %v now %v", before, after)
	}
}

func TestSendMessageWithoutSessionIsNoop(t *testing.T) {
	ctx := context.Background()
	api := &fakePlanner{}
	mgr := chat.NewManager(api, signedInAuth(t))

	if err := mgr.SendMessage(ctx, "hello"); err != nil {
		t.Fatalf("SendMessage returned error: %v", err)
	}
	if api.sendCalls != 0 {
		t.Fatalf("expected no network call without a session")
	}
	if len(mgr.Transcript()) != 0 {
		t.Fatalf("expected empty transcript")
	}
}

func TestClearChatKeepsSession(t *testing.T) {
	ctx := context.Background()
	api := &fakePlanner{}
	mgr := chat.NewManager(api, signedInAuth(t))

	if err := mgr.StartSession(ctx); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := mgr.SendMessage(ctx, "hello"); err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	mgr.ClearChat()

	if len(mgr.Transcript()) != 0 || len(mgr.Suggestions()) != 0 {
		t.Fatalf("expected cleared transcript and suggestions")
	}
	if mgr.SessionID() == "" {
		t.Fatalf("expected session id to survive a clear")
	}
}

func TestHistoryWithoutSession(t *testing.T) {
	api := &fakePlanner{history: []*domain.Message{{ID: "m1"}}}
	mgr := chat.NewManager(api, signedInAuth(t))

	msgs, err := mgr.History(context.Background())
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if msgs != nil {
		t.Fatalf("expected nil history without a session, got %v", msgs)
	}
}
