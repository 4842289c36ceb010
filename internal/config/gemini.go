package config

import (
	"os"
	"sync"
)

type GeminiConfig struct {
	APIKey string
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		geminiConfig = &GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		}
	})
	return geminiConfig
}
