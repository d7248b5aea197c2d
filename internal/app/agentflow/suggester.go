package agentflow

import (
	"context"
	"fmt"

	"github.com/rsehgal/wayfarer/internal/domain"
)

// DestinationAgent: turns the extracted requirements into 3-5 concrete
// destination or itinerary ideas for the traveler to choose from.
type DestinationAgent struct {
	llm domain.LLMClient
}

func NewDestinationAgent(llm domain.LLMClient) *DestinationAgent {
	return &DestinationAgent{llm: llm}
}

func (a *DestinationAgent) Name() string {
	return "destination_suggester"
}

func (a *DestinationAgent) Run(ctx context.Context, in AgentInput) (AgentOutput, error) {
	prompt := fmt.Sprintf(
		"You are Wayfarer's Destination Suggester agent. The Personalization agent has extracted the trip "+
			"requirements. Propose 3-5 destination or itinerary ideas matched to them, each with a one-line "+
			"reason why it fits the budget and interests. Stay realistic for the stated dates and origin.\n\n"+
			"Previous agent output:\n%s",
		in.UserMessage,
	)

	reply, err := a.llm.GenerateReply(ctx, prompt, in.ConvCtx)
	if err != nil {
		return AgentOutput{}, err
	}

	return AgentOutput{
		Reply:          reply,
		UpdatedContext: in.ConvCtx,
	}, nil
}
