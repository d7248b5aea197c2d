package domain

import (
	"context"
	"time"
)

// AgentReply is one planner response to a chat message.
type AgentReply struct {
	MessageID   MessageID
	Text        string
	Timestamp   time.Time
	Suggestions []string
}

// PlannerClient talks to the remote planning service on behalf of the
// client-side chat manager.
type PlannerClient interface {
	StartSession(ctx context.Context, userID UserID) (SessionID, error)
	SendMessage(ctx context.Context, sessionID SessionID, userID UserID, text string) (*AgentReply, error)
	History(ctx context.Context, sessionID SessionID) ([]*Message, error)
}
