package config

import (
	"sync"
	"time"
)

// EngineConfig drives the scoring engine and the trigger controller.
type EngineConfig struct {
	AlgorithmVersion   string
	RunConcurrency     int
	RunTimeout         time.Duration
	ExtractionTimeout  time.Duration
	MaxCVChars         int
	OCREnabled         bool
	ShortlistThreshold float64
}

var (
	engineConfig *EngineConfig
	engineOnce   sync.Once
)

func LoadEngineConfig() *EngineConfig {
	engineOnce.Do(func() {
		engineConfig = &EngineConfig{
			AlgorithmVersion:   getEnv("SCORING_ALGORITHM_VERSION", "v1.0"),
			RunConcurrency:     getEnvInt("RUN_CONCURRENCY", 4),
			RunTimeout:         getEnvDuration("RUN_TIMEOUT", 10*time.Minute),
			ExtractionTimeout:  getEnvDuration("EXTRACTION_TIMEOUT", 30*time.Second),
			MaxCVChars:         getEnvInt("MAX_CV_CHARS", 15000),
			OCREnabled:         getEnvBool("OCR_ENABLED", false),
			ShortlistThreshold: getEnvFloat("SHORTLIST_THRESHOLD", 75),
		}
	})
	return engineConfig
}
