package agentflow

import (
	"context"
	"fmt"

	"github.com/rsehgal/wayfarer/internal/domain"
)

// PersonalizationAgent: extracts trip entities from the user's request and
// restates the requirements clearly.
type PersonalizationAgent struct {
	llm domain.LLMClient
}

func NewPersonalizationAgent(llm domain.LLMClient) *PersonalizationAgent {
	return &PersonalizationAgent{llm: llm}
}

func (a *PersonalizationAgent) Name() string {
	return "personalization"
}

func (a *PersonalizationAgent) Run(ctx context.Context, in AgentInput) (AgentOutput, error) {
	prompt := fmt.Sprintf(
		"You are Wayfarer's Personalization agent. Extract the key trip entities from the user's request "+
			"(theme, duration in days, travel dates, interests, budget, origin city, number of travelers, "+
			"activity preferences) and restate the requirements clearly. If something essential is missing, "+
			"note what you would ask for.\n\nUser: %s",
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
