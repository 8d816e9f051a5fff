package config

import (
	"fmt"
	"os"
	"strings"

	"transsrt/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	if err := c.normalizeTranslation(); err != nil {
		return err
	}
	c.normalizeServer()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("TRANSSRT_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeEngine() {
	c.Engine.Provider = strings.ToLower(strings.TrimSpace(c.Engine.Provider))
	if c.Engine.Provider == "" {
		c.Engine.Provider = defaultProvider
	}
	c.Engine.Model = strings.TrimSpace(c.Engine.Model)
	if c.Engine.Model == "" {
		c.Engine.Model = defaultModels[c.Engine.Provider]
	}
	c.Engine.BaseURL = strings.TrimSpace(c.Engine.BaseURL)
	if c.Engine.BaseURL == "" {
		c.Engine.BaseURL = defaultBaseURLs[c.Engine.Provider]
	}
	c.Engine.APIKey = strings.TrimSpace(c.Engine.APIKey)
	if c.Engine.APIKey == "" {
		for _, name := range apiKeyEnvs(c.Engine.Provider) {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				c.Engine.APIKey = strings.TrimSpace(value)
				break
			}
		}
	}
	c.Engine.Referer = strings.TrimSpace(c.Engine.Referer)
	if c.Engine.Referer == "" {
		c.Engine.Referer = defaultEngineReferer
	}
	c.Engine.Title = strings.TrimSpace(c.Engine.Title)
	if c.Engine.Title == "" {
		c.Engine.Title = defaultEngineTitle
	}
	if c.Engine.TimeoutSeconds <= 0 {
		c.Engine.TimeoutSeconds = defaultEngineTimeout
	}
}

func (c *Config) normalizeTranslation() error {
	source, err := language.Normalize(c.Translation.SourceLanguage)
	if err != nil {
		return fmt.Errorf("translation.source_language: %w", err)
	}
	c.Translation.SourceLanguage = source
	target, err := language.Normalize(c.Translation.TargetLanguage)
	if err != nil {
		return fmt.Errorf("translation.target_language: %w", err)
	}
	c.Translation.TargetLanguage = target
	if c.Translation.RequestsPerMinute < 0 {
		c.Translation.RequestsPerMinute = 0
	}
	return nil
}

func (c *Config) normalizeServer() {
	c.Server.OutputSuffix = strings.TrimSpace(c.Server.OutputSuffix)
	if c.Server.OutputSuffix == "" {
		c.Server.OutputSuffix = "_" + language.ToISO2(c.Translation.TargetLanguage)
	}
	origins := make([]string, 0, len(c.Server.CORSOrigins))
	for _, origin := range c.Server.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.Server.CORSOrigins = origins
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func apiKeyEnvs(provider string) []string {
	switch provider {
	case ProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	case ProviderOpenAI:
		return []string{"OPENAI_API_KEY"}
	case ProviderOpenRouter:
		return []string{"OPENROUTER_API_KEY"}
	default:
		return nil
	}
}

func apiKeyEnv(provider string) string {
	if names := apiKeyEnvs(provider); len(names) > 0 {
		return names[0]
	}
	return "the provider API key"
}
