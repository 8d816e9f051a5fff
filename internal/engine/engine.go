package engine

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"transsrt/internal/services"
	"transsrt/internal/textutil"
)

// Engine is a remote text-generation service that turns one prompt into one
// reply. Implementations classify their failures with services markers so the
// orchestrator can decide whether to retry.
type Engine interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError is a non-2xx reply from an HTTP engine.
type StatusError struct {
	StatusCode int
	Body       string
	Wait       time.Duration
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, body)
}

// RetryAfter exposes the server's Retry-After hint to services.RetryAfter.
func (e *StatusError) RetryAfter() time.Duration { return e.Wait }

// MarkerForStatus maps an HTTP status to a services marker.
func MarkerForStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return services.ErrRateLimit
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		return services.ErrTimeout
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return services.ErrConfiguration
	case status == http.StatusServiceUnavailable, status == http.StatusBadGateway:
		return services.ErrUnavailable
	default:
		return services.ErrEngine
	}
}

// ClassifyStatus wraps a non-2xx reply with the marker for its status code.
func ClassifyStatus(component string, status int, body string, retryAfter time.Duration) error {
	statusErr := &StatusError{StatusCode: status, Body: textutil.Snippet(body), Wait: retryAfter}
	return services.Wrap(MarkerForStatus(status), component, "complete", "", statusErr)
}

// ClassifyTransport wraps a failure that happened before any reply arrived.
// Deadlines and network timeouts are retryable; caller cancellation is not.
func ClassifyTransport(component string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, context.Canceled):
		return services.Wrap(services.ErrCanceled, component, "complete", "request canceled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, component, "complete", "deadline exceeded", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTimeout, component, "complete", "network timeout", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return services.Wrap(services.ErrTimeout, component, "complete", "network timeout", err)
	}
	return services.Wrap(services.ErrEngine, component, "complete", "request failed", err)
}

// EmptyReply reports a reply without any text.
func EmptyReply(component, detail string) error {
	msg := "empty reply"
	if detail = strings.TrimSpace(detail); detail != "" {
		msg += " (" + detail + ")"
	}
	return services.Wrap(services.ErrEmptyResponse, component, "complete", msg, nil)
}

// ParseRetryAfter reads a Retry-After header in either delta-seconds or HTTP
// date form.
func ParseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}
