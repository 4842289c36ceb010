package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/fadilmartias/cv-matcher/internal/config"
)

// Transport error classes. Backends wrap one of these so callers can apply a
// retry policy without knowing the backend.
var (
	ErrRateLimited   = errors.New("rate limited")
	ErrTimeout       = errors.New("request timed out")
	ErrUnavailable   = errors.New("provider unavailable")
	ErrEmptyResponse = errors.New("empty response")
)

type GenerateRequest struct {
	System string
	Prompt string
	// JSON asks the backend for a JSON-only response when it supports it.
	JSON bool
}

// Generator is the text-generation capability behind the evaluator.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	Name() string
	Model() string
}

const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

var defaultModels = map[string]string{
	ProviderGemini:     "gemini-2.5-flash",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOllama:     "llama3.1",
}

// NewGenerator builds the backend named by cfg.Provider.
func NewGenerator(ctx context.Context, cfg *config.LLMConfig) (Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModels[provider]
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiService(ctx, config.LoadGeminiConfig(), model, cfg.Temperature)
	case ProviderOpenAI:
		return NewOpenAIService(config.LoadOpenAIConfig(), model, cfg.Temperature)
	case ProviderOpenRouter:
		return NewOpenRouterService(config.LoadOpenRouterConfig(), model, cfg.Temperature)
	case ProviderOllama:
		return NewOllamaService(config.LoadOllamaConfig(), model, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// classifyStatus maps an HTTP status from a backend to a transport class.
func classifyStatus(provider string, code int, message string) error {
	message = strings.TrimSpace(message)
	switch code {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s status %d: %s", ErrRateLimited, provider, code, message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s status %d: %s", ErrTimeout, provider, code, message)
	default:
		return fmt.Errorf("%w: %s status %d: %s", ErrUnavailable, provider, code, message)
	}
}

// classifyTransport maps a client-side failure (no HTTP status) to a class.
// Cancellation is returned unchanged.
func classifyTransport(provider string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, provider, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, provider, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, provider, err)
}
