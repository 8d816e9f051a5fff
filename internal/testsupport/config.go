package testsupport

import (
	"path/filepath"
	"testing"

	"transsrt/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It selects the mock engine, disables backoff waits, and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Engine.Provider = config.ProviderMock
	cfgVal.Engine.Model = "mock"
	cfgVal.Translation.BackoffMinSeconds = 0
	cfgVal.Translation.BackoffMaxSeconds = 0
	cfgVal.Server.OutputSuffix = "_en"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithChunking overrides chunk and context sizes.
func WithChunking(size, context int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.ChunkSize = size
		b.cfg.Translation.ContextSize = context
	}
}

// WithAPIToken enables bearer auth on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIToken = token
	}
}

// WithProvider selects an engine provider and key.
func WithProvider(provider, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Engine.Provider = provider
		b.cfg.Engine.APIKey = apiKey
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
