package llm

import (
	"context"
	"fmt"

	"github.com/rsehgal/wayfarer/internal/domain"
)

type MockLLM struct{}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) GenerateReply(ctx context.Context, prompt string, convCtx domain.ConversationContext) (string, error) {
	return fmt.Sprintf("Sounds like a great trip! You said %q. Tell me your budget, travel dates and how many of you are going, and I will suggest a few destinations.", prompt), nil
}
