package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"transsrt/internal/services"
)

func newServer(t *testing.T, status int, body any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	server := newServer(t, http.StatusOK, map[string]any{
		"choices": []any{
			map[string]any{"index": 0, "message": map[string]any{"role": "assistant", "content": "1. hello\n2. thanks"}},
		},
	})
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, Model: "gpt-4o-mini"}, nil)
	got, err := client.Complete(context.Background(), "1. 안녕\n2. 고마워")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "1. hello\n2. thanks" {
		t.Fatalf("content = %q", got)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := newServer(t, http.StatusOK, map[string]any{"choices": []any{}})
	client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, nil)
	if _, err := client.Complete(context.Background(), "1. x"); services.KindOf(err) != services.KindEmptyResponse {
		t.Fatalf("expected empty_response, got %v", err)
	}
}

func TestCompleteClassifiesStatus(t *testing.T) {
	cases := []struct {
		status int
		want   services.Kind
	}{
		{http.StatusTooManyRequests, services.KindRateLimit},
		{http.StatusUnauthorized, services.KindConfiguration},
		{http.StatusGatewayTimeout, services.KindTimeout},
		{http.StatusBadRequest, services.KindEngine},
	}
	for _, tc := range cases {
		server := newServer(t, tc.status, map[string]any{
			"error": map[string]any{"message": "nope", "type": "test"},
		})
		client := NewClient(Config{APIKey: "k", BaseURL: server.URL}, nil)
		_, err := client.Complete(context.Background(), "1. x")
		if got := services.KindOf(err); got != tc.want {
			t.Errorf("status %d: kind %q, want %q (%v)", tc.status, got, tc.want, err)
		}
	}
}
