package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fadilmartias/cv-matcher/internal/config"
	"google.golang.org/genai"
)

type GeminiService struct {
	Client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiService(ctx context.Context, cfg *config.GeminiConfig, model string, temperature float64) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiService{
		Client:      client,
		model:       model,
		temperature: float32(temperature),
	}, nil
}

func (s *GeminiService) Name() string  { return ProviderGemini }
func (s *GeminiService) Model() string { return s.model }

func (s *GeminiService) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(s.temperature),
	}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		genConfig.ResponseMIMEType = "application/json"
	}

	result, err := s.Client.Models.GenerateContent(ctx, s.model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	if err := validateGenerateResponse(result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmptyResponse, err)
	}
	return result.Text(), nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(ProviderGemini, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyStatus(ProviderGemini, apiErrPtr.Code, apiErrPtr.Message)
	}
	return classifyTransport(ProviderGemini, err)
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}
