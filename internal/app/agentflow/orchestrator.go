package agentflow

import (
	"context"
	"fmt"
	"time"

	"github.com/rsehgal/wayfarer/internal/app/tools"
	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

// Orchestrator runs the planning sub-agents in sequence, each agent's
// output feeding the next one.
type Orchestrator struct {
	llm    domain.LLMClient
	agents []Agent
}

// NewDefaultOrchestrator constructs the chat flow:
// Personalization -> Destination Suggester -> Optimizer.
func NewDefaultOrchestrator(llm domain.LLMClient, itineraryTool tools.Tool) *Orchestrator {
	return &Orchestrator{
		llm: llm,
		agents: []Agent{
			NewPersonalizationAgent(llm),
			NewDestinationAgent(llm),
			NewOptimizerAgent(llm, itineraryTool),
		},
	}
}

// Run executes the chain of agents sequentially.
func (o *Orchestrator) Run(
	ctx context.Context,
	userMessage string,
	convCtx domain.ConversationContext,
) (string, error) {
	if len(o.agents) == 0 {
		return "", fmt.Errorf("no agents configured in orchestrator")
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", convCtx.SessionID,
		"user_id", convCtx.UserID,
	)
	log.Info("orchestrator started", "agents_count", len(o.agents))

	in := AgentInput{
		UserMessage: userMessage,
		ConvCtx:     convCtx,
	}

	var (
		out AgentOutput
		err error
	)

	for _, ag := range o.agents {
		start := time.Now()
		log.Info("agent run start", "agent", ag.Name())

		out, err = ag.Run(ctx, in)
		if err != nil {
			log.Error("agent failed",
				"agent", ag.Name(),
				"error", err)
			return "", fmt.Errorf("agent %s failed: %w", ag.Name(), err)
		}

		elapsed := time.Since(start)
		log.Info("agent run end", "agent", ag.Name(), "elapsed_ms", elapsed.Milliseconds())

		// The output of an agent is the input for the next agent
		in.UserMessage = out.Reply
		in.ConvCtx = out.UpdatedContext
	}

	log.Info("orchestrator end")
	return out.Reply, nil
}
