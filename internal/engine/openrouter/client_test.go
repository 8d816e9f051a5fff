package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"transsrt/internal/services"
)

func TestCompleteSendsHeadersAndReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("authorization header = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "TransSRT" {
			t.Fatalf("title header = %q", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "demo-model" || len(req.Messages) != 2 || req.Messages[1].Content != "1. hello" {
			t.Fatalf("unexpected request %+v", req)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"content": "1. hola"}},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "TransSRT"})
	got, err := client.Complete(context.Background(), "1. hello")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "1. hola" {
		t.Fatalf("content = %q", got)
	}
}

func TestCompleteFallsBackToDeltaContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"delta":{"content":"1. from delta"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"})
	got, err := client.Complete(context.Background(), "1. x")
	if err != nil || got != "1. from delta" {
		t.Fatalf("Complete = %q, %v", got, err)
	}
}

func TestCompleteRateLimitCarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "4")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"})
	_, err := client.Complete(context.Background(), "1. x")
	if services.KindOf(err) != services.KindRateLimit {
		t.Fatalf("expected rate_limit, got %v", err)
	}
	if delay, ok := services.RetryAfter(err); !ok || delay != 4*time.Second {
		t.Fatalf("RetryAfter = %v, %v", delay, ok)
	}
}

func TestCompleteInBodyErrorCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited upstream","code":429}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"})
	_, err := client.Complete(context.Background(), "1. x")
	if services.KindOf(err) != services.KindRateLimit {
		t.Fatalf("expected rate_limit, got %v", err)
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"finish_reason":"content_filter","message":{"content":"","refusal":"no"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"})
	_, err := client.Complete(context.Background(), "1. x")
	if services.KindOf(err) != services.KindEmptyResponse {
		t.Fatalf("expected empty_response, got %v", err)
	}
	if !strings.Contains(err.Error(), "content_filter") {
		t.Fatalf("finish reason missing from %q", err)
	}
}

func TestCompleteUnauthorizedIsConfiguration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "m"})
	if _, err := client.Complete(context.Background(), "1. x"); services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration, got %v", err)
	}
}

func TestCompleteClientTimeoutIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"},
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := client.Complete(context.Background(), "1. x")
	if services.KindOf(err) != services.KindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestCompleteRequiresKey(t *testing.T) {
	client := NewClient(Config{Model: "m"})
	if _, err := client.Complete(context.Background(), "1. x"); services.KindOf(err) != services.KindConfiguration {
		t.Fatalf("expected configuration, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"OK"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "m"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}
