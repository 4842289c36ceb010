package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fadilmartias/cv-matcher/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusRequestTimeout, ErrTimeout},
		{http.StatusGatewayTimeout, ErrTimeout},
		{http.StatusServiceUnavailable, ErrUnavailable},
		{http.StatusUnauthorized, ErrUnavailable},
		{http.StatusInternalServerError, ErrUnavailable},
	}
	for _, tt := range tests {
		err := classifyStatus("test", tt.code, "boom")
		assert.ErrorIs(t, err, tt.want, "status %d", tt.code)
	}
}

func TestClassifyTransport(t *testing.T) {
	assert.Nil(t, classifyTransport("test", nil))
	assert.ErrorIs(t, classifyTransport("test", context.DeadlineExceeded), ErrTimeout)
	assert.ErrorIs(t, classifyTransport("test", context.Canceled), context.Canceled)
	assert.ErrorIs(t, classifyTransport("test", errors.New("connection refused")), ErrUnavailable)
}

func TestNewGeneratorUnknownProvider(t *testing.T) {
	_, err := NewGenerator(context.Background(), &config.LLMConfig{Provider: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}

func TestOpenRouterGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"overall_score\":80}"}}]}`))
	}))
	defer srv.Close()

	svc, err := NewOpenRouterService(&config.OpenRouterConfig{APIKey: "key", BaseURL: srv.URL}, "some/model", 0.1)
	require.NoError(t, err)

	text, err := svc.Generate(context.Background(), GenerateRequest{System: "sys", Prompt: "hello", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, `{"overall_score":80}`, text)
	assert.Equal(t, "some/model", got["model"])
	assert.Len(t, got["messages"], 2)
	assert.NotNil(t, got["response_format"])
	assert.Equal(t, ProviderOpenRouter, svc.Name())
	assert.Equal(t, "some/model", svc.Model())
}

func TestOpenRouterRequiresKey(t *testing.T) {
	_, err := NewOpenRouterService(&config.OpenRouterConfig{}, "m", 0)
	assert.Error(t, err)
}

func TestOpenRouterStatusMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	svc, err := NewOpenRouterService(&config.OpenRouterConfig{APIKey: "key", BaseURL: srv.URL}, "m", 0)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), GenerateRequest{Prompt: "hello"})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "slow down")
}

func TestOpenRouterEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	svc, err := NewOpenRouterService(&config.OpenRouterConfig{APIKey: "key", BaseURL: srv.URL}, "m", 0)
	require.NoError(t, err)

	_, err = svc.Generate(context.Background(), GenerateRequest{Prompt: "hello"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOllamaGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"{}"},"done":true}`))
	}))
	defer srv.Close()

	svc := NewOllamaService(&config.OllamaConfig{Host: srv.URL + "/"}, "llama3.1", 0.1)
	text, err := svc.Generate(context.Background(), GenerateRequest{Prompt: "hello", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "{}", text)
	assert.Equal(t, false, got["stream"])
	assert.Equal(t, "json", got["format"])
	assert.Len(t, got["messages"], 1)
}

func TestOllamaTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	svc := NewOllamaService(&config.OllamaConfig{Host: srv.URL}, "llama3.1", 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.Generate(ctx, GenerateRequest{Prompt: "hello"})
	assert.ErrorIs(t, err, ErrTimeout)
}
