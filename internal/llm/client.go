// Package llm provides the completion-service clients used by the coach.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/capitalize-ai/fitness-coach/pkg/metrics"
)

var (
	// ErrUpstream marks a failed completion call: transport error, non-2xx status or an
	// error object embedded in the response.
	ErrUpstream = errors.New("llm: completion service error")

	// ErrMissingAPIKey is returned when a client is built without credentials.
	ErrMissingAPIKey = errors.New("llm: missing API key")
)

// FallbackReply replaces an empty completion.
const FallbackReply = "I'm here to help with your training, but I couldn't put together a reply just now. Could you say that another way?"

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the first choice's text.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// NewClient creates a new LLM client based on provider. baseURL is optional.
func NewClient(provider Provider, apiKey, baseURL string) (Client, error) {
	switch provider {
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, baseURL)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, baseURL)
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", provider)
	}
}

func upstreamError(provider string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, provider, err)
}

func contentOrFallback(content string) string {
	if strings.TrimSpace(content) == "" {
		return FallbackReply
	}
	return content
}

func observe(model string, start time.Time, resp *CompletionResponse, err error) {
	status := "ok"
	in, out := 0, 0
	if err != nil {
		status = "error"
	} else if resp != nil {
		in, out = resp.TokensIn, resp.TokensOut
	}
	metrics.RecordCompletion(model, status, time.Since(start).Seconds(), in, out)
}
