package llm

import (
	"context"
	"fmt"
	"strings"
)

// mockProvider returns deterministic text without network access.
// It is selected with llm.provider=mock for local development.
type mockProvider struct {
	model string
}

// NewMockProvider creates the offline provider.
func NewMockProvider(model string) Provider {
	if model == "" {
		model = "mock-1"
	}
	return &mockProvider{model: model}
}

func (p *mockProvider) Name() string  { return "mock" }
func (p *mockProvider) Model() string { return p.model }

func (p *mockProvider) Generate(ctx context.Context, prompt string, _ *GenerationParams) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, transportError(p.Name(), err)
	}
	excerpt := strings.Join(strings.Fields(prompt), " ")
	if len(excerpt) > 50 {
		excerpt = excerpt[:50] + "..."
	}
	text := fmt.Sprintf("This is a mock AI response to the prompt: '%s'", excerpt)
	return &Completion{Text: text, TokensUsed: EstimateTokens(prompt, text)}, nil
}
