package planner_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rsehgal/wayfarer/internal/adapters/planner"
	"github.com/rsehgal/wayfarer/internal/domain"
)

func TestStartSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/chat/session" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "user-1" {
			t.Errorf("expected user_id=user-1, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"session_id": "session-1",
			"user_id":    "user-1",
			"status":     "created",
		})
	}))
	defer srv.Close()

	c := planner.NewClient(srv.URL)
	sessionID, err := c.StartSession(context.Background(), domain.UserID("user-1"))
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if sessionID != "session-1" {
		t.Fatalf("expected session-1, got %q", sessionID)
	}
}

func TestStartSessionMissingSessionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "created"})
	}))
	defer srv.Close()

	c := planner.NewClient(srv.URL)
	_, err := c.StartSession(context.Background(), domain.UserID("user-1"))

	var protoErr *planner.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		if body["message"] != "beach trip" || body["session_id"] != "session-1" {
			t.Errorf("unexpected request body: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response":    "How about Lisbon?",
			"session_id":  "session-1",
			"message_id":  "msg-1",
			"timestamp":   "2025-05-01T10:00:00Z",
			"suggestions": []string{"Show me more destinations"},
		})
	}))
	defer srv.Close()

	c := planner.NewClient(srv.URL)
	reply, err := c.SendMessage(context.Background(), "session-1", "user-1", "beach trip")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if reply.Text != "How about Lisbon?" || reply.MessageID != "msg-1" {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(reply.Suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %v", reply.Suggestions)
	}
}

func TestSendMessageMalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 2xx with a shape missing required fields.
		_ = json.NewEncoder(w).Encode(map[string]any{"session_id": "session-1"})
	}))
	defer srv.Close()

	c := planner.NewClient(srv.URL)
	_, err := c.SendMessage(context.Background(), "session-1", "user-1", "hi")

	var protoErr *planner.ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("expected ProtocolError, got %v", err)
	}
}

func TestAPIErrorCarriesBodyMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Session not found"})
	}))
	defer srv.Close()

	c := planner.NewClient(srv.URL)
	_, err := c.History(context.Background(), "missing")

	var apiErr *planner.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Session not found" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
}

func TestUnauthorizedInvokesHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	hookCalled := false
	c := planner.NewClient(srv.URL, planner.WithUnauthorizedHook(func() {
		hookCalled = true
	}))

	_, err := c.StartSession(context.Background(), "user-1")

	var apiErr *planner.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if !hookCalled {
		t.Fatalf("expected unauthorized hook to fire")
	}
}

func TestTokenSourceAttachesBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-123" {
			t.Errorf("expected bearer token, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": "session-1",
			"messages":   []any{},
		})
	}))
	defer srv.Close()

	c := planner.NewClient(srv.URL, planner.WithTokenSource(func(ctx context.Context) (string, error) {
		return "token-123", nil
	}))

	if _, err := c.History(context.Background(), "session-1"); err != nil {
		t.Fatalf("History failed: %v", err)
	}
}

func TestHistoryMapsMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/history/session-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session_id": "session-1",
			"messages": []map[string]any{
				{"id": "m1", "author": "user", "text": "hi", "created_at": "2025-05-01T10:00:00Z"},
				{"id": "m2", "author": "agent", "text": "hello", "created_at": "2025-05-01T10:00:01Z", "is_error": false},
			},
		})
	}))
	defer srv.Close()

	c := planner.NewClient(srv.URL)
	msgs, err := c.History(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Author != domain.RoleUser || msgs[1].Author != domain.RoleAgent {
		t.Fatalf("unexpected authors: %v %v", msgs[0].Author, msgs[1].Author)
	}
}
