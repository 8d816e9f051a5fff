package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"transsrt/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrEngine, "gemini", "generate", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrEngine) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"gemini", "generate", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want services.Kind
	}{
		{"nil", nil, ""},
		{"rate limit", services.Wrap(services.ErrRateLimit, "engine", "complete", "429", nil), services.KindRateLimit},
		{"timeout", services.Wrap(services.ErrTimeout, "engine", "complete", "", nil), services.KindTimeout},
		{"validation", fmt.Errorf("chunk 2: %w", services.Wrap(services.ErrValidation, "response", "parse", "missing", nil)), services.KindValidation},
		{"reassembly", services.Wrap(services.ErrReassembly, "", "", "", nil), services.KindReassembly},
		{"empty input", services.ErrEmptyInput, services.KindEmptyInput},
		{"unavailable", services.Wrap(services.ErrUnavailable, "breaker", "", "open", nil), services.KindUnavailable},
		{"canceled", context.Canceled, services.KindCanceled},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), services.KindTimeout},
		{"plain", errors.New("plain"), services.KindInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.KindOf(tc.err); got != tc.want {
				t.Fatalf("KindOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	if !services.Retryable(services.ErrRateLimit) || !services.Retryable(services.ErrTimeout) {
		t.Fatal("expected rate limit and timeout to be retryable")
	}
	for _, err := range []error{services.ErrValidation, services.ErrEngine, services.ErrUnavailable, errors.New("x")} {
		if services.Retryable(err) {
			t.Fatalf("expected %v to be permanent", err)
		}
	}
}

type hintedErr struct{ delay time.Duration }

func (e hintedErr) Error() string             { return "hinted" }
func (e hintedErr) RetryAfter() time.Duration { return e.delay }

func TestRetryAfterFindsHintInChain(t *testing.T) {
	err := services.Wrap(services.ErrRateLimit, "openrouter", "complete", "", hintedErr{delay: 3 * time.Second})
	delay, ok := services.RetryAfter(err)
	if !ok || delay != 3*time.Second {
		t.Fatalf("RetryAfter() = %v %v", delay, ok)
	}
	if _, ok := services.RetryAfter(services.ErrRateLimit); ok {
		t.Fatal("expected no hint on bare marker")
	}
}
