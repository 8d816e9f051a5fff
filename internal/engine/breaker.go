package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"transsrt/internal/logging"
	"transsrt/internal/services"
)

// BreakerSettings tunes the circuit breaker around an engine.
type BreakerSettings struct {
	MaxFailures int
	OpenFor     time.Duration
	// HalfOpenRequests is how many calls may probe a half-open circuit at
	// once. Set it to the chunk concurrency so parallel chunks are not
	// rejected while the circuit recovers.
	HalfOpenRequests int
}

// halfOpenRetryAfter is the wait hint given to calls turned away while the
// half-open probe quota is in use.
const halfOpenRetryAfter = time.Second

// Breaker fails calls fast with services.ErrUnavailable after MaxFailures
// consecutive engine failures, until OpenFor has elapsed and a probe call
// succeeds. Rate limits and timeouts do not count as failures: the retry
// policy owns them.
type Breaker struct {
	next   Engine
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next Engine, settings BreakerSettings, logger *slog.Logger) *Breaker {
	logger = logging.NewComponentLogger(logger, "breaker")
	maxFailures := settings.MaxFailures
	if maxFailures < 1 {
		maxFailures = 1
	}
	halfOpen := settings.HalfOpenRequests
	if halfOpen < 1 {
		halfOpen = 1
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: uint32(halfOpen),
		Timeout:     settings.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		IsSuccessful: countsAsSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			attrs := []logging.Attr{
				logging.String("engine", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
			}
			if to == gobreaker.StateOpen {
				logging.WarnWithContext(logger, "engine circuit opened", "breaker_open",
					append(attrs,
						logging.String(logging.FieldErrorHint, "check provider status and credentials"),
						logging.String(logging.FieldImpact, "chunks fail fast until the circuit closes"),
					)...)
				return
			}
			logger.Info("engine circuit state changed", logging.Args(attrs...)...)
		},
	})
	return &Breaker{next: next, cb: cb, logger: logger}
}

// Name reports the wrapped engine's name.
func (b *Breaker) Name() string { return b.next.Name() }

// State reports the breaker state for health output.
func (b *Breaker) State() string { return b.cb.State().String() }

// Complete forwards to the wrapped engine unless the circuit is open.
func (b *Breaker) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, prompt)
	})
	if err != nil {
		switch {
		case errors.Is(err, gobreaker.ErrOpenState):
			return "", services.Wrap(services.ErrUnavailable, "breaker", "complete", b.next.Name()+" circuit open", err)
		case errors.Is(err, gobreaker.ErrTooManyRequests):
			return "", services.Wrap(services.ErrRateLimit, "breaker", "complete", b.next.Name()+" circuit half-open",
				halfOpenRejection{err: err})
		}
		return "", err
	}
	text, _ := out.(string)
	return text, nil
}

// countsAsSuccess keeps cancellation, bad replies and transient throttling from
// tripping the breaker. Rate limits and timeouts are retried with backoff; an
// open circuit would turn them into permanent failures.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	switch services.KindOf(err) {
	case services.KindCanceled, services.KindEmptyResponse, services.KindValidation,
		services.KindRateLimit, services.KindTimeout:
		return true
	}
	return false
}

// halfOpenRejection carries a retry hint for calls over the half-open quota.
type halfOpenRejection struct{ err error }

func (r halfOpenRejection) Error() string             { return r.err.Error() }
func (r halfOpenRejection) Unwrap() error             { return r.err }
func (r halfOpenRejection) RetryAfter() time.Duration { return halfOpenRetryAfter }
