package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind names a failure category. Callers branch on kinds instead of message text.
type Kind string

const (
	KindEmptyInput      Kind = "empty_input"
	KindRateLimit       Kind = "rate_limit"
	KindTimeout         Kind = "timeout"
	KindValidation      Kind = "validation"
	KindReassembly      Kind = "reassembly"
	KindInvalidFormat   Kind = "invalid_format"
	KindInvalidArgument Kind = "invalid_argument"
	KindConfiguration   Kind = "configuration"
	KindEmptyResponse   Kind = "empty_response"
	KindUnavailable     Kind = "unavailable"
	KindEngine          Kind = "engine"
	KindCanceled        Kind = "canceled"
	KindInternal        Kind = "internal"
)

var (
	ErrEmptyInput      = errors.New("empty input")
	ErrRateLimit       = errors.New("rate limited")
	ErrTimeout         = errors.New("timeout")
	ErrValidation      = errors.New("validation error")
	ErrReassembly      = errors.New("reassembly mismatch")
	ErrInvalidFormat   = errors.New("invalid subtitle format")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConfiguration   = errors.New("configuration error")
	ErrEmptyResponse   = errors.New("empty engine response")
	ErrUnavailable     = errors.New("engine unavailable")
	ErrEngine          = errors.New("engine error")
	ErrCanceled        = errors.New("canceled")
)

// markers is ordered so that the most specific classification wins when an
// error chain carries more than one marker.
var markers = []struct {
	marker error
	kind   Kind
}{
	{ErrCanceled, KindCanceled},
	{ErrUnavailable, KindUnavailable},
	{ErrRateLimit, KindRateLimit},
	{ErrTimeout, KindTimeout},
	{ErrValidation, KindValidation},
	{ErrReassembly, KindReassembly},
	{ErrEmptyInput, KindEmptyInput},
	{ErrInvalidFormat, KindInvalidFormat},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrConfiguration, KindConfiguration},
	{ErrEmptyResponse, KindEmptyResponse},
	{ErrEngine, KindEngine},
}

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrEngine
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf classifies err. Context cancellation maps to KindCanceled and deadline
// expiry to KindTimeout; unmarked errors are KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, m := range markers {
		if errors.Is(err, m.marker) {
			return m.kind
		}
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindInternal
}

// RetryableKind reports whether failures of kind k are transient.
func RetryableKind(k Kind) bool {
	return k == KindRateLimit || k == KindTimeout
}

// Retryable reports whether err should be retried.
func Retryable(err error) bool {
	return RetryableKind(KindOf(err))
}

// RetryAfter returns the server-supplied wait hint carried anywhere in err's chain.
func RetryAfter(err error) (time.Duration, bool) {
	var hinted interface{ RetryAfter() time.Duration }
	if !errors.As(err, &hinted) {
		return 0, false
	}
	delay := hinted.RetryAfter()
	if delay <= 0 {
		return 0, false
	}
	return delay, true
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
