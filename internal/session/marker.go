package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Marker records that a session already triggered analysis for a job.
type Marker interface {
	// MarkOnce reports true the first time (sessionID, jobID) is seen within
	// the TTL.
	MarkOnce(ctx context.Context, sessionID string, jobID uuid.UUID) (bool, error)
}

func New(cfg *config.SessionConfig) (Marker, error) {
	switch strings.ToLower(cfg.MarkerDriver) {
	case "", "memory":
		return NewMemoryMarker(cfg.MarkerTTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisMarker(client, cfg.MarkerTTL), nil
	default:
		return nil, fmt.Errorf("unsupported session marker driver: %q", cfg.MarkerDriver)
	}
}

func key(sessionID string, jobID uuid.UUID) string {
	return fmt.Sprintf("cv-matcher:session:%s:job:%s", sessionID, jobID)
}

type MemoryMarker struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemoryMarker(ttl time.Duration) *MemoryMarker {
	return &MemoryMarker{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]time.Time),
	}
}

func (m *MemoryMarker) MarkOnce(_ context.Context, sessionID string, jobID uuid.UUID) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, fmt.Errorf("session id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now)

	k := key(sessionID, jobID)
	if expires, ok := m.entries[k]; ok && now.Before(expires) {
		return false, nil
	}
	m.entries[k] = now.Add(m.ttl)
	return true, nil
}

func (m *MemoryMarker) sweep(now time.Time) {
	for k, expires := range m.entries {
		if !now.Before(expires) {
			delete(m.entries, k)
		}
	}
}

type RedisMarker struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisMarker(client redis.Cmdable, ttl time.Duration) *RedisMarker {
	return &RedisMarker{client: client, ttl: ttl}
}

func (m *RedisMarker) MarkOnce(ctx context.Context, sessionID string, jobID uuid.UUID) (bool, error) {
	if strings.TrimSpace(sessionID) == "" {
		return false, fmt.Errorf("session id is required")
	}
	ok, err := m.client.SetNX(ctx, key(sessionID, jobID), 1, m.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark session: %w", err)
	}
	return ok, nil
}
