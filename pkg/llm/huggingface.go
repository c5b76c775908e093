package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"quill-ai-go/internal/config"
)

const defaultHuggingFaceURL = "https://api-inference.huggingface.co"

// huggingFaceProvider calls the Hugging Face hosted inference API.
type huggingFaceProvider struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewHuggingFaceProvider creates a provider for {base}/models/{model}.
func NewHuggingFaceProvider(cfg config.LLMConfig, client *http.Client) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultHuggingFaceURL
	}
	return &huggingFaceProvider{cfg: cfg, client: client}
}

type hfParameters struct {
	MaxNewTokens   *int     `json:"max_new_tokens,omitempty"`
	Temperature    *float64 `json:"temperature,omitempty"`
	TopP           *float64 `json:"top_p,omitempty"`
	ReturnFullText bool     `json:"return_full_text"`
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

func (p *huggingFaceProvider) Name() string  { return "huggingface" }
func (p *huggingFaceProvider) Model() string { return p.cfg.Model }

func (p *huggingFaceProvider) Generate(ctx context.Context, prompt string, gen *GenerationParams) (*Completion, error) {
	body := hfRequest{Inputs: prompt}
	if gen != nil {
		body.Parameters.MaxNewTokens = gen.MaxTokens
		body.Parameters.Temperature = gen.Temperature
		body.Parameters.TopP = gen.TopP
	}

	reqBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inference request: %w", err)
	}

	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/models/" + p.cfg.Model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transportError(p.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("body: %s", string(bodyBytes)),
		}
	}

	var out []hfGeneration
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Timeout: isTimeout(err), Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(out) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: errors.New("unexpected response format from api")}
	}

	text := out[0].GeneratedText
	// the inference API does not report usage
	return &Completion{Text: text, TokensUsed: EstimateTokens(prompt, text)}, nil
}
