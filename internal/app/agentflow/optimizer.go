package agentflow

import (
	"context"
	"fmt"

	"github.com/rsehgal/wayfarer/internal/app/tools"
	"github.com/rsehgal/wayfarer/internal/domain"
	"github.com/rsehgal/wayfarer/internal/observability"
)

// OptimizerAgent: composes the final reply for the traveler, optimizing
// the suggested options into a practical next step. When an itinerary
// tool is wired (itinerary generation flow), the produced plan is
// persisted through it.
type OptimizerAgent struct {
	llm           domain.LLMClient
	itineraryTool tools.Tool
}

func NewOptimizerAgent(llm domain.LLMClient, itineraryTool tools.Tool) *OptimizerAgent {
	return &OptimizerAgent{
		llm:           llm,
		itineraryTool: itineraryTool,
	}
}

func (a *OptimizerAgent) Name() string {
	return "optimizer"
}

func (a *OptimizerAgent) Run(ctx context.Context, in AgentInput) (AgentOutput, error) {
	log := observability.LoggerFromContext(ctx).With("agent", a.Name())

	prompt := fmt.Sprintf(
		"You are Wayfarer's Optimization agent. The Destination Suggester proposed options for the trip.\n"+
			"Compose the reply the traveler will actually read: present the options cleanly, point out the "+
			"best fit for their budget and pace, and end with one clear question that moves the planning "+
			"forward.\n\nPrevious agent output:\n%s",
		in.UserMessage,
	)

	reply, err := a.llm.GenerateReply(ctx, prompt, in.ConvCtx)
	if err != nil {
		log.Error("optimizer agent error", "error", err)
		return AgentOutput{}, err
	}

	if a.itineraryTool != nil {
		tctx := tools.ToolContext{
			UserID:    string(in.ConvCtx.UserID),
			SessionID: string(in.ConvCtx.SessionID),
			RequestID: observability.RequestIDFromContext(ctx),
		}

		input := map[string]any{
			"content":     reply,
			"preferences": map[string]any{},
		}

		if _, err := a.itineraryTool.Call(ctx, tctx, input); err != nil {
			// Persisting the draft is best effort in the chat flow.
			log.Error("itinerary tool call failed", "error", err)
		}
	}

	return AgentOutput{
		Reply:          reply,
		UpdatedContext: in.ConvCtx,
	}, nil
}
