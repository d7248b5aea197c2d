// Package chat owns the lifecycle of one conversation with the remote
// planning service for the current user.
package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rsehgal/wayfarer/internal/app/authstate"
	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

// errorReplyText is appended as a synthetic agent message when a send fails.
const errorReplyText = "Sorry, I encountered an error. Please try again."

// Manager keeps the session id, transcript, and suggestion list for a
// single conversation. The transcript is append-only except when a new
// session starts or the user clears the chat.
//
// Overlapping SendMessage calls are not serialized; replies land in
// network-resolution order, matching the product's observed behavior.
type Manager struct {
	api  domain.PlannerClient
	auth *authstate.Service
	now  func() time.Time

	mu          sync.RWMutex
	sessionID   domain.SessionID
	messages    []*domain.Message
	suggestions []string
}

func NewManager(api domain.PlannerClient, auth *authstate.Service) *Manager {
	return &Manager{
		api:  api,
		auth: auth,
		now:  time.Now,
	}
}

// SessionID returns the current session id, empty when none is open.
func (m *Manager) SessionID() domain.SessionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// Transcript returns a copy of the current message sequence.
func (m *Manager) Transcript() []*domain.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Suggestions returns a copy of the current suggestion list.
func (m *Manager) Suggestions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.suggestions))
	copy(out, m.suggestions)
	return out
}

// StartSession opens a new conversation, replacing any previous one.
// Without a signed-in user it logs and returns without a network call.
func (m *Manager) StartSession(ctx context.Context) error {
	log := observability.LoggerFromContext(ctx).With("component", "chat")

	user := m.auth.CurrentUser()
	if user == nil {
		log.Info("no user found, cannot start session")
		return nil
	}

	log.Info("starting chat session", "user_id", user.ID)

	sessionID, err := m.api.StartSession(ctx, user.ID)
	if err != nil {
		log.Error("failed to start session", "error", err)
		return err
	}

	m.mu.Lock()
	m.sessionID = sessionID
	m.messages = nil
	m.suggestions = nil
	m.mu.Unlock()

	log.Info("session started", "session_id", sessionID)
	return nil
}

// SendMessage appends the user's message optimistically, then relays it
// to the planning service. On success the agent reply is appended and
// the suggestion list replaced; on failure a synthetic agent error
// message is appended and suggestions are left untouched.
func (m *Manager) SendMessage(ctx context.Context, text string) error {
	log := observability.LoggerFromContext(ctx).With("component", "chat")

	user := m.auth.CurrentUser()

	m.mu.RLock()
	sessionID := m.sessionID
	m.mu.RUnlock()

	if sessionID == "" || user == nil {
		log.Info("no session or user found, cannot send message")
		return nil
	}

	userMsg := &domain.Message{
		ID:        domain.MessageID(uuid.NewString()),
		SessionID: sessionID,
		Author:    domain.RoleUser,
		Text:      text,
		CreatedAt: m.now(),
	}

	m.mu.Lock()
	m.messages = append(m.messages, userMsg)
	m.mu.Unlock()

	reply, err := m.api.SendMessage(ctx, sessionID, user.ID, text)
	if err != nil {
		log.Error("failed to send message", "error", err)

		m.mu.Lock()
		m.messages = append(m.messages, &domain.Message{
			ID:        domain.MessageID(uuid.NewString()),
			SessionID: sessionID,
			Author:    domain.RoleAgent,
			Text:      errorReplyText,
			CreatedAt: m.now(),
			IsError:   true,
		})
		m.mu.Unlock()
		return err
	}

	agentMsg := &domain.Message{
		ID:        reply.MessageID,
		SessionID: sessionID,
		Author:    domain.RoleAgent,
		Text:      reply.Text,
		CreatedAt: reply.Timestamp,
	}

	m.mu.Lock()
	m.messages = append(m.messages, agentMsg)
	m.suggestions = reply.Suggestions
	m.mu.Unlock()

	return nil
}

// History fetches the stored transcript for the current session from
// the planning service. It does not touch local state.
func (m *Manager) History(ctx context.Context) ([]*domain.Message, error) {
	m.mu.RLock()
	sessionID := m.sessionID
	m.mu.RUnlock()

	if sessionID == "" {
		return nil, nil
	}
	return m.api.History(ctx, sessionID)
}

// ClearChat empties the transcript and suggestions. The remote session
// stays open.
func (m *Manager) ClearChat() {
	m.mu.Lock()
	m.messages = nil
	m.suggestions = nil
	m.mu.Unlock()
}
