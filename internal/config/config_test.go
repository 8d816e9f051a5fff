package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"transsrt/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "transsrt")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8080" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Engine.Provider != config.ProviderGemini {
		t.Fatalf("unexpected provider: %q", cfg.Engine.Provider)
	}
	if cfg.Engine.APIKey != "test-key" {
		t.Fatalf("expected engine key from env, got %q", cfg.Engine.APIKey)
	}
	if cfg.Engine.Model == "" {
		t.Fatal("expected default model for provider")
	}
	tr := cfg.Translation
	if tr.ChunkSize != 50 || tr.ContextSize != 3 || tr.MaxConcurrent != 10 || tr.MaxAttempts != 3 {
		t.Fatalf("unexpected translation defaults: %+v", tr)
	}
	if cfg.BackoffMin().Seconds() != 2 || cfg.BackoffMax().Seconds() != 10 {
		t.Fatalf("unexpected backoff: %s..%s", cfg.BackoffMin(), cfg.BackoffMax())
	}
	if cfg.Server.OutputSuffix != "_en" {
		t.Fatalf("expected output suffix derived from target language, got %q", cfg.Server.OutputSuffix)
	}
	if cfg.MaxFileSizeBytes() != 10*1024*1024 {
		t.Fatalf("unexpected max file size: %d", cfg.MaxFileSizeBytes())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "transsrt.toml")

	type payload struct {
		Engine struct {
			Provider string `toml:"provider"`
			APIKey   string `toml:"api_key"`
			BaseURL  string `toml:"base_url"`
		} `toml:"engine"`
		Translation struct {
			SourceLanguage string `toml:"source_language"`
			TargetLanguage string `toml:"target_language"`
			ChunkSize      int    `toml:"chunk_size"`
			MaxConcurrent  int    `toml:"max_concurrent"`
		} `toml:"translation"`
	}
	custom := payload{}
	custom.Engine.Provider = "OpenAI"
	custom.Engine.APIKey = "abc123"
	custom.Engine.BaseURL = "https://example.com/v1"
	custom.Translation.SourceLanguage = "japanese"
	custom.Translation.TargetLanguage = "DE"
	custom.Translation.ChunkSize = 25
	custom.Translation.MaxConcurrent = 4
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Engine.Provider != config.ProviderOpenAI {
		t.Fatalf("expected provider normalized to openai, got %q", cfg.Engine.Provider)
	}
	if cfg.Engine.BaseURL != "https://example.com/v1" {
		t.Fatalf("expected base url override, got %q", cfg.Engine.BaseURL)
	}
	if cfg.Translation.SourceLanguage != "ja" || cfg.Translation.TargetLanguage != "de" {
		t.Fatalf("unexpected languages: %q -> %q", cfg.Translation.SourceLanguage, cfg.Translation.TargetLanguage)
	}
	if cfg.Translation.ChunkSize != 25 || cfg.Translation.MaxConcurrent != 4 {
		t.Fatalf("unexpected translation overrides: %+v", cfg.Translation)
	}
	if cfg.Translation.ContextSize != 3 {
		t.Fatalf("expected unset context size to keep default, got %d", cfg.Translation.ContextSize)
	}
	if cfg.Server.OutputSuffix != "_de" {
		t.Fatalf("unexpected output suffix %q", cfg.Server.OutputSuffix)
	}
}

func TestLoadRejectsUnknownLanguage(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "transsrt.toml")
	body := "[translation]\ntarget_language = \"klingonese!\"\n"
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "translation.target_language") {
		t.Fatalf("expected target language error, got %v", err)
	}
}

func TestLoadRejectsNegativeContextSize(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "transsrt.toml")
	if err := os.WriteFile(configPath, []byte("[translation]\ncontext_size = -2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "translation.context_size") {
		t.Fatalf("expected context_size error, got %v", err)
	}
}

func TestProviderSpecificEnvFallback(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "transsrt.toml")
	if err := os.WriteFile(configPath, []byte("[engine]\nprovider = \"openrouter\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "wrong")
	t.Setenv("OPENROUTER_API_KEY", "env-openrouter")
	t.Setenv("TRANSSRT_API_TOKEN", "env-token")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Engine.APIKey != "env-openrouter" {
		t.Errorf("expected OpenRouter key from env, got %q", cfg.Engine.APIKey)
	}
	if cfg.Engine.BaseURL == "" {
		t.Error("expected default OpenRouter base url")
	}
	if cfg.Paths.APIToken != "env-token" {
		t.Errorf("expected API token from env, got %q", cfg.Paths.APIToken)
	}
}

func TestRequireEngineCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.APIKey = ""
	if err := cfg.RequireEngineCredentials(); !errors.Is(err, config.ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	cfg.Engine.Provider = config.ProviderMock
	if err := cfg.RequireEngineCredentials(); err != nil {
		t.Fatalf("mock provider should not need a key: %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Translation.ChunkSize != 50 {
		t.Fatalf("expected sample chunk size 50, got %d", cfg.Translation.ChunkSize)
	}
	if !strings.Contains(cfg.Paths.DataDir, "transsrt") {
		t.Fatalf("expected data dir to contain transsrt, got %q", cfg.Paths.DataDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"chunk size", func(c *config.Config) { c.Translation.ChunkSize = 0 }},
		{"negative context", func(c *config.Config) { c.Translation.ContextSize = -1 }},
		{"concurrency", func(c *config.Config) { c.Translation.MaxConcurrent = 0 }},
		{"attempts", func(c *config.Config) { c.Translation.MaxAttempts = 0 }},
		{"backoff order", func(c *config.Config) { c.Translation.BackoffMaxSeconds = 1 }},
		{"same language", func(c *config.Config) { c.Translation.SourceLanguage = "en" }},
		{"provider", func(c *config.Config) { c.Engine.Provider = "llama" }},
		{"breaker", func(c *config.Config) { c.Breaker.MaxFailures = 0 }},
		{"upload cap", func(c *config.Config) { c.Server.MaxFileSizeMB = 0 }},
		{"suffix", func(c *config.Config) { c.Server.OutputSuffix = "../x" }},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "my-topic" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
