package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// OllamaService talks to a locally hosted model through the Ollama chat API.
type OllamaService struct {
	client      *resty.Client
	model       string
	temperature float64
}

func NewOllamaService(cfg *config.OllamaConfig, model string, temperature float64) *OllamaService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.Host, "/")).
		SetHeader("Content-Type", "application/json")
	return &OllamaService{client: client, model: model, temperature: temperature}
}

func (s *OllamaService) Name() string  { return ProviderOllama }
func (s *OllamaService) Model() string { return s.model }

func (s *OllamaService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	messages := []map[string]string{}
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]any{
		"model":    s.model,
		"messages": messages,
		"stream":   false,
		"options":  map[string]any{"temperature": s.temperature},
	}
	if req.JSON {
		body["format"] = "json"
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/api/chat")
	if err != nil {
		return "", classifyTransport(ProviderOllama, err)
	}
	if resp.IsError() {
		return "", classifyStatus(ProviderOllama, resp.StatusCode(), gjson.Get(resp.String(), "error").String())
	}

	text := gjson.Get(resp.String(), "message.content").String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: ollama returned no content", ErrEmptyResponse)
	}
	return text, nil
}
