// Package llm provides adapters for external text-generation providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"quill-ai-go/internal/config"
)

// Provider is the capability every text-generation backend implements.
type Provider interface {
	// Generate sends one prompt and returns the whole generated document.
	Generate(ctx context.Context, prompt string, gen *GenerationParams) (*Completion, error)
	// Name returns the provider identifier recorded in the audit trail.
	Name() string
	// Model returns the configured model identifier.
	Model() string
}

// Completion is the raw provider output plus its token count.
type Completion struct {
	Text       string
	TokensUsed int
}

// GenerationParams 控制生成行为，nil 字段表示使用服务端默认值。
type GenerationParams struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// ParamsFromConfig 将配置中的非零生成参数转换为 GenerationParams。
func ParamsFromConfig(cfg config.LLMGenerationConfig) *GenerationParams {
	var gp GenerationParams
	if cfg.Temperature != 0 {
		t := cfg.Temperature
		gp.Temperature = &t
	}
	if cfg.TopP != 0 {
		p := cfg.TopP
		gp.TopP = &p
	}
	if cfg.MaxTokens != 0 {
		m := cfg.MaxTokens
		gp.MaxTokens = &m
	}
	if gp.Temperature == nil && gp.TopP == nil && gp.MaxTokens == nil {
		return nil
	}
	return &gp
}

// ProviderError is returned for any upstream failure: transport error,
// timeout, non-2xx status or an unusable response body.
type ProviderError struct {
	Provider   string
	StatusCode int
	Timeout    bool
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: request timed out: %v", e.Provider, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: upstream returned status %d: %v", e.Provider, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// transportError classifies an error from http.Client.Do.
func transportError(provider string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Timeout: isTimeout(err), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// EstimateTokens approximates a token count as 4/3 tokens per word.
func EstimateTokens(texts ...string) int {
	words := 0
	for _, t := range texts {
		words += len(strings.Fields(t))
	}
	return int(math.Ceil(float64(words) * 4 / 3))
}

// NewProvider 根据配置创建 Provider，进程启动时调用一次。
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	httpClient := &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	switch strings.ToLower(cfg.Provider) {
	case "openai", "deepseek":
		return NewOpenAIProvider(cfg, httpClient), nil
	case "huggingface":
		return NewHuggingFaceProvider(cfg, httpClient), nil
	case "gemini":
		return NewGeminiProvider(ctx, cfg, httpClient)
	case "mock", "":
		return NewMockProvider(cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
