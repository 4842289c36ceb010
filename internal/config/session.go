package config

import (
	"os"
	"sync"
	"time"
)

type SessionConfig struct {
	MarkerDriver  string
	MarkerTTL     time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

var (
	sessionConfig *SessionConfig
	sessionOnce   sync.Once
)

func LoadSessionConfig() *SessionConfig {
	sessionOnce.Do(func() {
		sessionConfig = &SessionConfig{
			MarkerDriver:  getEnv("SESSION_MARKER_DRIVER", "memory"),
			MarkerTTL:     getEnvDuration("SESSION_MARKER_TTL", 12*time.Hour),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getEnvInt("REDIS_DB", 0),
		}
	})
	return sessionConfig
}
