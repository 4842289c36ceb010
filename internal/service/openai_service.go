package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAIService struct {
	client      *openai.Client
	model       string
	temperature float64
}

func NewOpenAIService(cfg *config.OpenAIConfig, model string, temperature float64) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIService{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
	}, nil
}

func (s *OpenAIService) Name() string  { return ProviderOpenAI }
func (s *OpenAIService) Model() string { return s.model }

func (s *OpenAIService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(s.model),
		Temperature: openai.F(s.temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", classifyStatus(ProviderOpenAI, apiErr.StatusCode, apiErr.Message)
		}
		return "", classifyTransport(ProviderOpenAI, err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: openai returned no choices", ErrEmptyResponse)
	}
	return completion.Choices[0].Message.Content, nil
}
