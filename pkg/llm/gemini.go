package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"quill-ai-go/internal/config"

	"google.golang.org/genai"
)

// geminiProvider generates text through the Google GenAI SDK.
type geminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini provider sharing the configured HTTP client (and its timeout).
func NewGeminiProvider(ctx context.Context, cfg config.LLMConfig, httpClient *http.Client) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &geminiProvider{client: client, model: model}, nil
}

func (p *geminiProvider) Name() string  { return "gemini" }
func (p *geminiProvider) Model() string { return p.model }

func (p *geminiProvider) Generate(ctx context.Context, prompt string, gen *GenerationParams) (*Completion, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), geminiConfig(gen))
	if err != nil {
		return nil, geminiError(err)
	}

	text := resp.Text()
	if text == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: errors.New("response contained no text")}
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	if tokens == 0 {
		tokens = EstimateTokens(prompt, text)
	}
	return &Completion{Text: text, TokensUsed: tokens}, nil
}

func geminiConfig(gen *GenerationParams) *genai.GenerateContentConfig {
	if gen == nil {
		return nil
	}
	cfg := &genai.GenerateContentConfig{}
	if gen.Temperature != nil {
		cfg.Temperature = genai.Ptr(float32(*gen.Temperature))
	}
	if gen.TopP != nil {
		cfg.TopP = genai.Ptr(float32(*gen.TopP))
	}
	if gen.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*gen.MaxTokens)
	}
	return cfg
}

// geminiError maps SDK errors onto ProviderError.
func geminiError(err error) *ProviderError {
	pe := &ProviderError{Provider: "gemini", Timeout: isTimeout(err), Err: err}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.Code
	}
	return pe
}
