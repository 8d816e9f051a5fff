package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"transsrt/internal/chunker"
	"transsrt/internal/config"
	"transsrt/internal/engine"
	"transsrt/internal/jobs"
	"transsrt/internal/language"
	"transsrt/internal/logging"
	"transsrt/internal/notifications"
	"transsrt/internal/reassemble"
	"transsrt/internal/services"
	"transsrt/internal/subtitles"
	"transsrt/internal/textutil"
	"transsrt/internal/translator"
)

// Request is one subtitle file to translate.
type Request struct {
	FileName string
	Data     []byte
	// SourceLanguage and TargetLanguage override the configured pair when set.
	SourceLanguage string
	TargetLanguage string
}

// Result is a translated file.
type Result struct {
	JobID      string
	OutputName string
	Content    string
	Format     subtitles.Format
	Entries    int
	Chunks     int
	Stats      translator.Stats
}

// Service runs translation jobs end to end. Store may be nil, in which case
// jobs are not recorded.
type Service struct {
	cfg    *config.Config
	engine engine.Engine
	store  *jobs.Store
	logger *slog.Logger
	notify notifications.Service
	now    func() time.Time
	// sleeper is forwarded to the translator; tests use it to skip backoff.
	sleeper func(time.Duration)
}

// Option customizes a Service.
type Option func(*Service)

// WithSleeper replaces real retry backoff waits.
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(s *Service) { s.sleeper = sleeper }
}

// WithNotifier replaces the notifier built from configuration.
func WithNotifier(notifier notifications.Service) Option {
	return func(s *Service) { s.notify = notifier }
}

// New constructs a Service.
func New(cfg *config.Config, eng engine.Engine, store *jobs.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:    cfg,
		engine: eng,
		store:  store,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		notify: notifications.NewService(cfg),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Translate decodes, parses, chunks, translates, and reassembles req. The
// output is always SRT. Errors carry a services kind.
func (s *Service) Translate(ctx context.Context, req Request) (*Result, error) {
	jobID := uuid.NewString()
	ctx = services.WithJobID(ctx, jobID)
	logger := logging.WithContext(ctx, s.logger)
	start := s.now()

	source, target, err := s.languages(req)
	if err != nil {
		return nil, err
	}
	fileName := textutil.SanitizeFileName(req.FileName)
	if fileName == "" {
		return nil, services.Wrap(services.ErrInvalidArgument, "pipeline", "translate", "file name required", nil)
	}

	entries, format, err := parse(fileName, req.Data)
	if err != nil {
		logging.WarnWithContext(logger, "subtitle file rejected", "file_rejected",
			logging.String("file", fileName),
			logging.Int("size_bytes", len(req.Data)),
			logging.Kind(string(services.KindOf(err))),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "upload a UTF-8 .srt or .sbv file"),
			logging.String(logging.FieldImpact, "file not translated"),
		)
		return nil, err
	}

	job, err := s.startJob(ctx, jobs.Job{
		ID:             jobID,
		FileName:       fileName,
		Format:         string(format),
		SourceLanguage: source,
		TargetLanguage: target,
		Provider:       s.engine.Name(),
		Entries:        len(entries),
	})
	if err != nil {
		return nil, err
	}

	result, stats, err := s.run(ctx, logger, entries, source, target)
	outputName := textutil.OutputName(fileName, s.outputSuffix(target))
	outcome := jobs.Outcome{
		Entries:  len(entries),
		Attempts: stats.TotalAttempts,
		Retries:  stats.Retries,
		Duration: s.now().Sub(start),
	}
	if result != nil {
		outcome.Chunks = result.Chunks
	} else {
		outcome.Chunks = stats.Chunks
	}
	if err != nil {
		outcome.Err = err
		outcome.ErrorKind = string(services.KindOf(err))
	} else {
		outcome.OutputName = outputName
	}
	s.finishJob(ctx, logger, job, outcome)
	s.notifyOutcome(ctx, logger, job, outcome)

	if err != nil {
		return nil, err
	}
	result.JobID = jobID
	result.OutputName = outputName
	result.Format = format
	logger.Info("subtitle file translated",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.String("file", fileName),
		logging.String("output", outputName),
		logging.Int("entries", result.Entries),
		logging.Int(logging.FieldChunkTotal, result.Chunks),
		logging.Int("attempts", stats.TotalAttempts),
		logging.Duration("duration", outcome.Duration),
	)
	return result, nil
}

func (s *Service) run(ctx context.Context, logger *slog.Logger, entries []subtitles.Entry, source, target string) (*Result, translator.Stats, error) {
	tc := s.cfg.Translation
	chunks, err := chunker.Create(entries, tc.ChunkSize, tc.ContextSize)
	if err != nil {
		return nil, translator.Stats{}, err
	}
	summary := chunker.Summarize(chunks)
	logger.Info("subtitle file chunked",
		logging.String(logging.FieldEventType, "chunks_created"),
		logging.Int("entries", summary.TotalEntries),
		logging.Int(logging.FieldChunkTotal, summary.TotalChunks),
		logging.Float64("avg_chunk_size", summary.AverageSize),
		logging.Int("context_size", tc.ContextSize),
	)

	tr := translator.New(s.engine, translator.Options{
		SourceLanguage: source,
		TargetLanguage: target,
		MaxConcurrent:  tc.MaxConcurrent,
		Retry: translator.RetryPolicy{
			MaxAttempts: tc.MaxAttempts,
			MinDelay:    s.cfg.BackoffMin(),
			MaxDelay:    s.cfg.BackoffMax(),
		},
		CallTimeout:       s.cfg.CallTimeout(),
		RequestsPerMinute: tc.RequestsPerMinute,
		Logger:            logger,
		Sleeper:           s.sleeper,
	})
	translations, stats, err := tr.TranslateWithStats(ctx, chunks)
	if err != nil {
		return nil, stats, err
	}

	merged, err := reassemble.Merge(chunks, translations)
	if err != nil {
		return nil, stats, err
	}
	content, err := subtitles.SRT{}.Format(merged)
	if err != nil {
		return nil, stats, services.Wrap(services.ErrReassembly, "pipeline", "format", "", err)
	}
	return &Result{
		Content: content,
		Entries: len(merged),
		Chunks:  len(chunks),
		Stats:   stats,
	}, stats, nil
}

func parse(fileName string, data []byte) ([]subtitles.Entry, subtitles.Format, error) {
	text, err := subtitles.Decode(data)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", services.Wrap(services.ErrEmptyInput, "pipeline", "parse", "file is empty", nil)
	}
	format, err := subtitles.Detect(fileName, text)
	if err != nil {
		return nil, "", err
	}
	adapter, err := subtitles.For(format)
	if err != nil {
		return nil, "", err
	}
	if !adapter.Validate(text) {
		return nil, "", services.Wrap(services.ErrInvalidFormat, "pipeline", "parse",
			fmt.Sprintf("content is not valid %s", strings.ToUpper(string(format))), nil)
	}
	entries, err := adapter.Parse(text)
	if err != nil {
		return nil, "", err
	}
	return entries, format, nil
}

func (s *Service) languages(req Request) (string, string, error) {
	source := s.cfg.Translation.SourceLanguage
	target := s.cfg.Translation.TargetLanguage
	if v := strings.TrimSpace(req.SourceLanguage); v != "" {
		normalized, err := language.Normalize(v)
		if err != nil {
			return "", "", services.Wrap(services.ErrInvalidArgument, "pipeline", "languages", "source language", err)
		}
		source = normalized
	}
	if v := strings.TrimSpace(req.TargetLanguage); v != "" {
		normalized, err := language.Normalize(v)
		if err != nil {
			return "", "", services.Wrap(services.ErrInvalidArgument, "pipeline", "languages", "target language", err)
		}
		target = normalized
	}
	if source == target {
		return "", "", services.Wrap(services.ErrInvalidArgument, "pipeline", "languages",
			fmt.Sprintf("source and target language are both %q", source), nil)
	}
	return source, target, nil
}

// outputSuffix keeps the configured suffix for the configured target and
// derives "_<iso2>" when a request overrides the target.
func (s *Service) outputSuffix(target string) string {
	if target == s.cfg.Translation.TargetLanguage && s.cfg.Server.OutputSuffix != "" {
		return s.cfg.Server.OutputSuffix
	}
	return "_" + language.ToISO2(target)
}

func (s *Service) startJob(ctx context.Context, job jobs.Job) (*jobs.Job, error) {
	if s.store == nil {
		return &job, nil
	}
	started, err := s.store.Start(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}
	return started, nil
}

// finishJob records the outcome. A history write failure is logged, not
// returned, so a finished translation is never discarded over bookkeeping.
func (s *Service) finishJob(ctx context.Context, logger *slog.Logger, job *jobs.Job, outcome jobs.Outcome) {
	if s.store == nil || job == nil {
		return
	}
	// Record the outcome even when the request context was canceled.
	recordCtx := context.WithoutCancel(ctx)
	if err := s.store.Finish(recordCtx, job.ID, outcome); err != nil {
		logging.WarnWithContext(logger, "failed to record job outcome", "job_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the data directory is writable"),
			logging.String(logging.FieldImpact, "job history incomplete"),
		)
	}
	if outcome.Err != nil && !errors.Is(outcome.Err, context.Canceled) {
		logging.ErrorWithContext(logger, "subtitle translation failed", "job_failed",
			logging.String("file", job.FileName),
			logging.Kind(outcome.ErrorKind),
			logging.Error(outcome.Err),
		)
	}
}

func (s *Service) notifyOutcome(ctx context.Context, logger *slog.Logger, job *jobs.Job, outcome jobs.Outcome) {
	if s.notify == nil || job == nil || errors.Is(outcome.Err, context.Canceled) {
		return
	}
	summary := notifications.JobSummary{
		JobID:          job.ID,
		FileName:       job.FileName,
		OutputName:     outcome.OutputName,
		SourceLanguage: job.SourceLanguage,
		TargetLanguage: job.TargetLanguage,
		Entries:        outcome.Entries,
		Chunks:         outcome.Chunks,
		Duration:       outcome.Duration,
		ErrorKind:      outcome.ErrorKind,
	}
	notifyCtx := context.WithoutCancel(ctx)
	var err error
	if outcome.Err != nil {
		err = s.notify.NotifyJobFailed(notifyCtx, summary, outcome.Err)
	} else {
		err = s.notify.NotifyJobCompleted(notifyCtx, summary)
	}
	if err != nil {
		logging.WarnWithContext(logger, "job notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "job outcome not announced"),
		)
	}
}
