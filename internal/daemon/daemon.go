package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"transsrt/internal/config"
	"transsrt/internal/engine"
	"transsrt/internal/engine/provider"
	"transsrt/internal/jobs"
	"transsrt/internal/logging"
	"transsrt/internal/pipeline"
)

// EngineFactory builds the translation engine on first use.
type EngineFactory func(ctx context.Context) (engine.Engine, error)

// Daemon serves translation requests and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	base   *slog.Logger
	logger *slog.Logger
	store  *jobs.Store

	engineMu   sync.Mutex
	engine     engine.Engine
	newEngine  EngineFactory
	pipeOpts   []pipeline.Option
	translates atomic.Int64

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running   atomic.Bool
	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithEngine uses eng instead of building one from configuration.
func WithEngine(eng engine.Engine) Option {
	return func(d *Daemon) {
		d.newEngine = func(context.Context) (engine.Engine, error) { return eng, nil }
	}
}

// WithEngineFactory overrides how the engine is built.
func WithEngineFactory(factory EngineFactory) Option {
	return func(d *Daemon) { d.newEngine = factory }
}

// WithPipelineOptions forwards options to every pipeline run.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(d *Daemon) { d.pipeOpts = append(d.pipeOpts, opts...) }
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Address      string
	JobsDBPath   string
	LockFilePath string
	Provider     string
	Breaker      string
	Active       int64
	Uptime       time.Duration
	Jobs         map[jobs.Status]int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and job store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		base:     logger,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	d.newEngine = func(ctx context.Context) (engine.Engine, error) {
		return provider.New(ctx, cfg, logger)
	}
	for _, opt := range opts {
		opt(d)
	}
	d.api = newAPIServer(cfg, d, d.base)
	return d, nil
}

// Start acquires the instance lock, fails jobs orphaned by a previous process,
// and starts the HTTP listener.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another transsrt daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if reset, err := d.store.ResetRunning(d.ctx); err != nil {
		logging.WarnWithContext(d.logger, "failed to reset orphaned jobs", "job_reset_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the jobs database in the data directory"),
			logging.String(logging.FieldImpact, "jobs from a previous run may still show as running"),
		)
	} else if reset > 0 {
		d.logger.Info("orphaned jobs marked failed",
			logging.String(logging.FieldEventType, "jobs_reset"),
			logging.Int64("count", reset),
		)
	}

	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start api server: %w", err)
	}

	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("transsrt daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.address()),
	)
	return nil
}

// Stop shuts down the HTTP listener and releases the daemon lock. In-flight
// translations are canceled.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("transsrt daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Address returns the bound listener address, or "" before Start.
func (d *Daemon) Address() string {
	return d.api.address()
}

// Status returns the current daemon status. Engine fields stay empty until
// the engine has been built.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Address:      d.api.address(),
		JobsDBPath:   d.store.Path(),
		LockFilePath: d.lockPath,
		Active:       d.translates.Load(),
	}
	if status.Running {
		status.Uptime = time.Since(d.startedAt)
	}
	d.engineMu.Lock()
	eng := d.engine
	d.engineMu.Unlock()
	if eng != nil {
		status.Provider = eng.Name()
		if breaker, ok := eng.(*engine.Breaker); ok {
			status.Breaker = breaker.State()
		}
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.Jobs = stats
	}
	return status
}

// Translate runs one translation job through the pipeline.
func (d *Daemon) Translate(ctx context.Context, req pipeline.Request) (*pipeline.Result, error) {
	eng, err := d.engineFor(ctx)
	if err != nil {
		return nil, err
	}
	d.translates.Add(1)
	defer d.translates.Add(-1)
	svc := pipeline.New(d.cfg, eng, d.store, d.base, d.pipeOpts...)
	return svc.Translate(ctx, req)
}

func (d *Daemon) engineFor(ctx context.Context) (engine.Engine, error) {
	d.engineMu.Lock()
	defer d.engineMu.Unlock()
	if d.engine != nil {
		return d.engine, nil
	}
	eng, err := d.newEngine(ctx)
	if err != nil {
		logging.ErrorWithContext(d.logger, "translation engine unavailable", "engine_init_failed",
			logging.String("provider", d.cfg.Engine.Provider),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set engine.api_key or the provider's API key environment variable"),
		)
		return nil, err
	}
	d.engine = eng
	return eng, nil
}
