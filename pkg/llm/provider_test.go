package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill-ai-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Generate(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Hello draft"}}],"usage":{"total_tokens":42}}`))
	}))
	defer srv.Close()

	temp := 0.5
	p := NewOpenAIProvider(config.LLMConfig{APIKey: "key", BaseURL: srv.URL + "/v1", Model: "gpt-test"}, srv.Client())
	out, err := p.Generate(context.Background(), "write", &GenerationParams{Temperature: &temp})
	require.NoError(t, err)

	assert.Equal(t, "Hello draft", out.Text)
	assert.Equal(t, 42, out.TokensUsed)
	assert.Equal(t, "gpt-test", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "write", got.Messages[0].Content)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.5, *got.Temperature)
}

func TestOpenAIProvider_EstimatesTokensWhenUsageMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"one two three"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.LLMConfig{BaseURL: srv.URL}, srv.Client())
	out, err := p.Generate(context.Background(), "a b c", nil)
	require.NoError(t, err)
	assert.Equal(t, 8, out.TokensUsed) // ceil(6 * 4 / 3)
}

func TestOpenAIProvider_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.LLMConfig{BaseURL: srv.URL}, srv.Client())
	_, err := p.Generate(context.Background(), "x", nil)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusServiceUnavailable, pe.StatusCode)
	assert.False(t, pe.Timeout)
	assert.Equal(t, "openai", pe.Provider)
}

func TestOpenAIProvider_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := srv.Client()
	client.Timeout = 50 * time.Millisecond
	p := NewOpenAIProvider(config.LLMConfig{BaseURL: srv.URL}, client)
	_, err := p.Generate(context.Background(), "x", nil)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.True(t, pe.Timeout)
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(config.LLMConfig{BaseURL: srv.URL}, srv.Client())
	_, err := p.Generate(context.Background(), "x", nil)
	var pe *ProviderError
	assert.True(t, errors.As(err, &pe))
}

func TestHuggingFaceProvider_Generate(t *testing.T) {
	var got hfRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gpt2", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"generated_text":"four five"}]`))
	}))
	defer srv.Close()

	maxTokens := 128
	p := NewHuggingFaceProvider(config.LLMConfig{BaseURL: srv.URL, Model: "gpt2"}, srv.Client())
	out, err := p.Generate(context.Background(), "one two three", &GenerationParams{MaxTokens: &maxTokens})
	require.NoError(t, err)

	assert.Equal(t, "four five", out.Text)
	assert.Equal(t, 7, out.TokensUsed) // ceil(5 * 4 / 3)
	assert.Equal(t, "one two three", got.Inputs)
	assert.False(t, got.Parameters.ReturnFullText)
	require.NotNil(t, got.Parameters.MaxNewTokens)
	assert.Equal(t, 128, *got.Parameters.MaxNewTokens)
}

func TestHuggingFaceProvider_EmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider(config.LLMConfig{BaseURL: srv.URL, Model: "gpt2"}, srv.Client())
	_, err := p.Generate(context.Background(), "x", nil)
	var pe *ProviderError
	assert.True(t, errors.As(err, &pe))
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider("")
	out, err := p.Generate(context.Background(), "Write a professional blog post about Go", nil)
	require.NoError(t, err)
	assert.Contains(t, out.Text, "mock AI response")
	assert.Positive(t, out.TokensUsed)
	assert.Equal(t, "mock-1", p.Model())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Generate(ctx, "x", nil)
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		want     string
		wantErr  bool
	}{
		{provider: "openai", want: "openai"},
		{provider: "DeepSeek", want: "openai"},
		{provider: "huggingface", want: "huggingface"},
		{provider: "mock", want: "mock"},
		{provider: "", want: "mock"},
		{provider: "gemini", wantErr: true}, // no api key
		{provider: "nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			p, err := NewProvider(context.Background(), config.LLMConfig{Provider: tt.provider, TimeoutSeconds: 1})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestParamsFromConfig(t *testing.T) {
	assert.Nil(t, ParamsFromConfig(config.LLMGenerationConfig{}))

	gp := ParamsFromConfig(config.LLMGenerationConfig{Temperature: 0.7, MaxTokens: 512})
	require.NotNil(t, gp)
	assert.Equal(t, 0.7, *gp.Temperature)
	assert.Equal(t, 512, *gp.MaxTokens)
	assert.Nil(t, gp.TopP)
}

func TestProviderError_Message(t *testing.T) {
	base := errors.New("boom")
	assert.Contains(t, (&ProviderError{Provider: "openai", Timeout: true, Err: base}).Error(), "timed out")
	assert.Contains(t, (&ProviderError{Provider: "openai", StatusCode: 500, Err: base}).Error(), "500")
	assert.ErrorIs(t, &ProviderError{Provider: "openai", Err: base}, base)
}
