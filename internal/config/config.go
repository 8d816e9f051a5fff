package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Engine contains connection settings for the remote text-generation engine.
type Engine struct {
	Provider       string  `toml:"provider"`
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	Referer        string  `toml:"referer"`
	Title          string  `toml:"title"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Translation contains the chunking, concurrency, and retry knobs of the
// batch orchestrator.
type Translation struct {
	SourceLanguage     string  `toml:"source_language"`
	TargetLanguage     string  `toml:"target_language"`
	ChunkSize          int     `toml:"chunk_size"`
	ContextSize        int     `toml:"context_size"`
	MaxConcurrent      int     `toml:"max_concurrent"`
	MaxAttempts        int     `toml:"max_attempts"`
	BackoffMinSeconds  float64 `toml:"backoff_min_seconds"`
	BackoffMaxSeconds  float64 `toml:"backoff_max_seconds"`
	CallTimeoutSeconds int     `toml:"call_timeout_seconds"`
	RequestsPerMinute  int     `toml:"requests_per_minute"`
}

// Breaker contains circuit breaker settings wrapped around the engine.
type Breaker struct {
	Enabled     bool `toml:"enabled"`
	MaxFailures int  `toml:"max_failures"`
	OpenSeconds int  `toml:"open_seconds"`
}

// Server contains HTTP upload limits and CORS settings.
type Server struct {
	MaxFileSizeMB int      `toml:"max_file_size_mb"`
	CORSOrigins   []string `toml:"cors_origins"`
	OutputSuffix  string   `toml:"output_suffix"`
}

// Notifications configures ntfy job notifications. An empty topic disables them.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	// NotifySuccess also announces completed jobs; failures are always sent.
	NotifySuccess bool `toml:"notify_success"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for TransSRT.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Engine: remote text-generation provider and credentials
//   - Translation: chunking, concurrency, retry, and language pair
//   - Breaker: circuit breaker around the engine
//   - Server: upload limits and CORS
//   - Notifications: ntfy job notifications
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Engine        Engine        `toml:"engine"`
	Translation   Translation   `toml:"translation"`
	Breaker       Breaker       `toml:"breaker"`
	Server        Server        `toml:"server"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("transsrt.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JobsDBPath returns the SQLite job history location.
func (c *Config) JobsDBPath() string {
	return filepath.Join(c.Paths.DataDir, "jobs.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "transsrt.lock")
}

// PIDPath returns the daemon PID file.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.DataDir, "transsrt.pid")
}

// BackoffMin returns the smallest retry delay.
func (c *Config) BackoffMin() time.Duration {
	return secondsToDuration(c.Translation.BackoffMinSeconds)
}

// BackoffMax returns the largest retry delay.
func (c *Config) BackoffMax() time.Duration {
	return secondsToDuration(c.Translation.BackoffMaxSeconds)
}

// CallTimeout returns the per-call engine deadline.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Translation.CallTimeoutSeconds) * time.Second
}

// MaxFileSizeBytes returns the upload size cap.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Server.MaxFileSizeMB) * 1024 * 1024
}

// ErrMissingAPIKey reports that the selected provider has no credentials.
var ErrMissingAPIKey = errors.New("missing api key")

// RequireEngineCredentials reports whether the configured provider can be
// reached. It is checked when an engine is built rather than at load so that
// read-only commands work without a key.
func (c *Config) RequireEngineCredentials() error {
	if c.Engine.Provider == ProviderMock {
		return nil
	}
	if strings.TrimSpace(c.Engine.APIKey) == "" {
		return fmt.Errorf("%w: engine.api_key is required for provider %q. Set %s or edit the config file (create with 'transsrt config init')", ErrMissingAPIKey, c.Engine.Provider, apiKeyEnv(c.Engine.Provider))
	}
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
