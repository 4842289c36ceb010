package service

import (
	"context"
	"fmt"

	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

type OpenRouterService struct {
	client      *resty.Client
	model       string
	temperature float64
}

func NewOpenRouterService(cfg *config.OpenRouterConfig, model string, temperature float64) (*OpenRouterService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not set")
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &OpenRouterService{client: client, model: model, temperature: temperature}, nil
}

func (s *OpenRouterService) Name() string  { return ProviderOpenRouter }
func (s *OpenRouterService) Model() string { return s.model }

func (s *OpenRouterService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	messages := []map[string]string{}
	if req.System != "" {
		messages = append(messages, map[string]string{"role": "system", "content": req.System})
	}
	messages = append(messages, map[string]string{"role": "user", "content": req.Prompt})

	body := map[string]any{
		"model":       s.model,
		"messages":    messages,
		"temperature": s.temperature,
	}
	if req.JSON {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return "", classifyTransport(ProviderOpenRouter, err)
	}
	if resp.IsError() {
		return "", classifyStatus(ProviderOpenRouter, resp.StatusCode(), gjson.Get(resp.String(), "error.message").String())
	}

	text := gjson.Get(resp.String(), "choices.0.message.content").String()
	if text == "" {
		return "", fmt.Errorf("%w: no response from LLM", ErrEmptyResponse)
	}
	return text, nil
}
