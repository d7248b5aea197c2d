package agentflow

import (
	"context"

	"github.com/rsehgal/wayfarer/internal/domain"
)

// AgentInput is what each sub-agent receives: the message to work on
// (for later agents, the previous agent's output) plus conversation context.
type AgentInput struct {
	UserMessage string
	ConvCtx     domain.ConversationContext
}

// AgentOutput carries the agent's reply and possibly updated context.
type AgentOutput struct {
	Reply          string
	UpdatedContext domain.ConversationContext
}

// Agent is one step of the planning flow.
type Agent interface {
	Name() string
	Run(ctx context.Context, in AgentInput) (AgentOutput, error)
}
