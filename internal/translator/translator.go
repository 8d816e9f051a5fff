package translator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"transsrt/internal/chunker"
	"transsrt/internal/engine"
	"transsrt/internal/logging"
	"transsrt/internal/response"
	"transsrt/internal/services"
)

const defaultMaxConcurrent = 10

// Options configures a Translator.
type Options struct {
	SourceLanguage string
	TargetLanguage string
	// MaxConcurrent bounds in-flight engine calls across all chunks.
	MaxConcurrent int
	Retry         RetryPolicy
	// CallTimeout bounds one engine call; zero means no per-call deadline.
	CallTimeout time.Duration
	// RequestsPerMinute throttles engine calls; zero disables throttling.
	RequestsPerMinute int
	Logger            *slog.Logger
	// Sleeper replaces real backoff waits when set.
	Sleeper func(time.Duration)
}

// Stats summarizes one batch.
type Stats struct {
	Chunks        int
	Attempts      []int
	TotalAttempts int
	Retries       int
	Failed        []int
	Elapsed       time.Duration
}

// ChunkError is the terminal failure of one chunk.
type ChunkError struct {
	Position int
	Total    int
	Attempts int
	Err      error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d/%d failed after %d attempt(s): %v", e.Position, e.Total, e.Attempts, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// BatchError reports that at least one chunk failed. It unwraps to the
// earliest failed chunk so callers classify the batch by that chunk's kind.
type BatchError struct {
	Failed []*ChunkError
	Total  int
}

func (e *BatchError) Error() string {
	first := e.Failed[0]
	if len(e.Failed) == 1 {
		return first.Error()
	}
	return fmt.Sprintf("%d of %d chunks failed; first: %s", len(e.Failed), e.Total, first.Error())
}

func (e *BatchError) Unwrap() error { return e.Failed[0] }

// Translator fans chunks out to an engine with bounded concurrency, retries
// transient failures, and validates every reply.
type Translator struct {
	engine  engine.Engine
	opts    Options
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New builds a Translator around eng.
func New(eng engine.Engine, opts Options) *Translator {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	t := &Translator{
		engine: eng,
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		logger: logging.NewComponentLogger(opts.Logger, "translator"),
	}
	if opts.RequestsPerMinute > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(float64(opts.RequestsPerMinute)/60.0), 1)
	}
	return t
}

// Translate returns one slice of translations per chunk, in chunk order.
// Either every chunk succeeds or the batch fails with a *BatchError.
func (t *Translator) Translate(ctx context.Context, chunks []chunker.Chunk) ([][]string, error) {
	results, _, err := t.TranslateWithStats(ctx, chunks)
	return results, err
}

// TranslateWithStats is Translate plus attempt accounting. Stats are filled
// in even when the batch fails.
func (t *Translator) TranslateWithStats(ctx context.Context, chunks []chunker.Chunk) ([][]string, Stats, error) {
	stats := Stats{Chunks: len(chunks), Attempts: make([]int, len(chunks))}
	if len(chunks) == 0 {
		return nil, stats, chunker.ErrEmptyInput
	}
	logger := logging.WithContext(ctx, t.logger)
	start := time.Now()

	results := make([][]string, len(chunks))
	failures := make([]*ChunkError, len(chunks))

	// Goroutines never return an error to the group, so one chunk's failure
	// cannot cancel its siblings.
	var g errgroup.Group
	for i, chunk := range chunks {
		g.Go(func() error {
			lines, attempts, err := t.translateChunk(ctx, chunk)
			stats.Attempts[i] = attempts
			if err != nil {
				failures[i] = &ChunkError{Position: chunk.Position, Total: chunk.Total, Attempts: attempts, Err: err}
				return nil
			}
			results[i] = lines
			return nil
		})
	}
	_ = g.Wait()

	stats.Elapsed = time.Since(start)
	var failed []*ChunkError
	for i, attempts := range stats.Attempts {
		stats.TotalAttempts += attempts
		if attempts > 1 {
			stats.Retries += attempts - 1
		}
		if failures[i] != nil {
			failed = append(failed, failures[i])
			stats.Failed = append(stats.Failed, failures[i].Position)
		}
	}

	if len(failed) > 0 {
		batchErr := &BatchError{Failed: failed, Total: len(chunks)}
		logging.ErrorWithContext(logger, "translation batch failed", "batch_failed",
			logging.Int("failed_chunks", len(failed)),
			logging.Int(logging.FieldChunkTotal, len(chunks)),
			logging.Int("first_failed_chunk", failed[0].Position),
			logging.Kind(string(services.KindOf(batchErr))),
			logging.Error(failed[0].Err),
			logging.String(logging.FieldErrorHint, "retry the file; persistent failures point at the engine or its quota"),
		)
		return nil, stats, batchErr
	}

	logger.Info("translation batch completed",
		logging.String(logging.FieldEventType, "batch_completed"),
		logging.Int(logging.FieldChunkTotal, len(chunks)),
		logging.Int("attempts", stats.TotalAttempts),
		logging.Int("retries", stats.Retries),
		logging.Duration("elapsed", stats.Elapsed),
	)
	return results, stats, nil
}

// translateChunk drives one chunk through attempts until it succeeds, fails
// permanently, or runs out of attempts.
func (t *Translator) translateChunk(ctx context.Context, chunk chunker.Chunk) ([]string, int, error) {
	ctx = services.WithChunk(ctx, chunk.Position)
	logger := logging.WithContext(ctx, t.logger)
	prompt := BuildPrompt(chunk, t.opts.SourceLanguage, t.opts.TargetLanguage)
	expected := len(chunk.Entries)

	for attempt := 1; ; attempt++ {
		lines, err := t.attempt(ctx, logger, prompt, expected)
		if err == nil {
			logger.Debug("chunk translated",
				logging.String(logging.FieldEventType, "chunk_completed"),
				logging.Int(logging.FieldChunkTotal, chunk.Total),
				logging.Int(logging.FieldAttempt, attempt),
				logging.Int("entries", expected),
			)
			return lines, attempt, nil
		}
		if services.KindOf(err) == services.KindCanceled {
			return nil, attempt, err
		}
		delay, retry := t.opts.Retry.Decide(attempt, err)
		if !retry {
			return nil, attempt, err
		}
		logging.WarnWithContext(logger, "chunk attempt failed; retrying", "chunk_retry",
			logging.Int(logging.FieldAttempt, attempt),
			logging.Int("max_attempts", t.opts.Retry.attempts()),
			logging.Duration("backoff", delay),
			logging.Kind(string(services.KindOf(err))),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "transient engine failure"),
			logging.String(logging.FieldImpact, "chunk delayed"),
		)
		if err := sleepContext(ctx, delay, t.opts.Sleeper); err != nil {
			return nil, attempt, services.Wrap(services.ErrCanceled, "translator", "backoff", "", err)
		}
	}
}

// attempt makes one engine call under a permit and validates the reply.
// Prompt building and reply parsing happen outside the permit.
func (t *Translator) attempt(ctx context.Context, logger *slog.Logger, prompt string, expected int) ([]string, error) {
	raw, err := t.call(ctx, prompt)
	if err != nil {
		return nil, err
	}
	lines, err := response.ParseWithLogger(raw, expected, logger)
	if err != nil {
		return nil, err
	}
	for i, line := range lines {
		lines[i] = DecodeText(line)
	}
	return lines, nil
}

func (t *Translator) call(ctx context.Context, prompt string) (string, error) {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return "", services.Wrap(services.ErrCanceled, "translator", "acquire permit", "", err)
	}
	defer t.sem.Release(1)

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return "", services.Wrap(services.ErrCanceled, "translator", "rate limit wait", "", err)
		}
	}

	callCtx := ctx
	if t.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.opts.CallTimeout)
		defer cancel()
	}
	raw, err := t.engine.Complete(callCtx, prompt)
	if err == nil {
		return raw, nil
	}
	// The engine may report our own per-call deadline as cancellation, so the
	// cause is kept as text only and cannot override the timeout kind.
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		msg := fmt.Sprintf("no reply within %s (%v)", t.opts.CallTimeout, err)
		return "", services.Wrap(services.ErrTimeout, "translator", "engine call", msg, nil)
	}
	return "", err
}
