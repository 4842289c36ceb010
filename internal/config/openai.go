package config

import (
	"os"
	"sync"
)

type OpenAIConfig struct {
	APIKey string
	// BaseURL is optional; empty keeps the SDK default.
	BaseURL string
}

var (
	openAIConfig *OpenAIConfig
	openAIOnce   sync.Once
)

func LoadOpenAIConfig() *OpenAIConfig {
	openAIOnce.Do(func() {
		openAIConfig = &OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		}
	})
	return openAIConfig
}
