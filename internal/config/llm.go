package config

import (
	"sync"
	"time"
)

// LLMConfig selects the text-generation backend and the retry policy applied
// around it.
type LLMConfig struct {
	Provider           string
	Model              string
	MaxRetries         int
	MaxTimeoutAttempts int
	BaseDelay          time.Duration
	MaxDelay           time.Duration
	RequestTimeout     time.Duration
	CircuitBreakerMax  int
	BreakerCooldown    time.Duration
	MaxLogLength       int
	Temperature        float64
}

var (
	llmConfig *LLMConfig
	llmOnce   sync.Once
)

func LoadLLMConfig() *LLMConfig {
	llmOnce.Do(func() {
		llmConfig = &LLMConfig{
			Provider:           getEnv("LLM_PROVIDER", "gemini"),
			Model:              getEnv("LLM_MODEL", ""),
			MaxRetries:         getEnvInt("LLM_MAX_RETRIES", 3),
			MaxTimeoutAttempts: getEnvInt("LLM_MAX_TIMEOUT_ATTEMPTS", 2),
			BaseDelay:          getEnvDuration("LLM_BASE_DELAY", time.Second),
			MaxDelay:           getEnvDuration("LLM_MAX_DELAY", 90*time.Second),
			RequestTimeout:     getEnvDuration("LLM_REQUEST_TIMEOUT", 90*time.Second),
			CircuitBreakerMax:  getEnvInt("LLM_CIRCUIT_BREAKER_MAX", 5),
			BreakerCooldown:    getEnvDuration("LLM_CIRCUIT_BREAKER_COOLDOWN", time.Minute),
			MaxLogLength:       getEnvInt("LLM_MAX_LOG_LENGTH", 200),
			Temperature:        getEnvFloat("LLM_TEMPERATURE", 0.1),
		}
	})
	return llmConfig
}
