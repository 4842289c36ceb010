package config

import "sync"

type OllamaConfig struct {
	Host string
}

var (
	ollamaConfig *OllamaConfig
	ollamaOnce   sync.Once
)

func LoadOllamaConfig() *OllamaConfig {
	ollamaOnce.Do(func() {
		ollamaConfig = &OllamaConfig{
			Host: getEnv("OLLAMA_HOST", "http://localhost:11434"),
		}
	})
	return ollamaConfig
}
