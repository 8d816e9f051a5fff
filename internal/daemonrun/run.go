// Package daemonrun hosts the process lifecycle shared by `transsrt serve`
// and the transsrtd binary.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"transsrt/internal/config"
	"transsrt/internal/daemon"
	"transsrt/internal/jobs"
	"transsrt/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	// Bind overrides paths.api_bind when set.
	Bind string
}

// LogFileName is the JSON log written under paths.log_dir.
const LogFileName = "transsrt.log"

// Run starts the daemon and blocks until SIGINT, SIGTERM, or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if bind := strings.TrimSpace(opts.Bind); bind != "" {
		cfg.Paths.APIBind = bind
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		Development:      opts.Development,
		FilePath:         filepath.Join(cfg.Paths.LogDir, LogFileName),
		SessionID:        uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg)
	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := jobs.Open(cfg)
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and that no other transsrt daemon is running"),
			logging.String(logging.FieldImpact, "translation requests cannot be served"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("transsrt daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// ReadPID returns the PID recorded by a running daemon, or 0 when none.
func ReadPID(cfg *config.Config) int {
	if cfg == nil {
		return 0
	}
	data, err := os.ReadFile(cfg.PIDPath())
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	tc := cfg.Translation
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("provider", cfg.Engine.Provider),
		logging.String("model", cfg.Engine.Model),
		logging.Bool("api_key_present", cfg.RequireEngineCredentials() == nil),
		logging.String("languages", tc.SourceLanguage+"->"+tc.TargetLanguage),
		logging.Int("chunk_size", tc.ChunkSize),
		logging.Int("context_size", tc.ContextSize),
		logging.Int("max_concurrent", tc.MaxConcurrent),
		logging.Int("max_attempts", tc.MaxAttempts),
		logging.Int("requests_per_minute", tc.RequestsPerMinute),
		logging.Bool("breaker", cfg.Breaker.Enabled),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("auth", cfg.Paths.APIToken != ""),
	)
}
