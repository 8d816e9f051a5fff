package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic %q must be a full http(s) URL", topic)
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOpenRouter, ProviderMock:
	default:
		return fmt.Errorf("engine.provider %q is not supported (use gemini, openai, openrouter, or mock)", c.Engine.Provider)
	}
	if c.Engine.Provider == ProviderOpenRouter && strings.TrimSpace(c.Engine.BaseURL) == "" {
		return errors.New("engine.base_url must be set for provider openrouter")
	}
	if c.Engine.Temperature < 0 || c.Engine.Temperature > 2 {
		return errors.New("engine.temperature must be between 0 and 2")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if err := ensurePositiveMap(map[string]int{
		"translation.chunk_size":           c.Translation.ChunkSize,
		"translation.max_concurrent":       c.Translation.MaxConcurrent,
		"translation.max_attempts":         c.Translation.MaxAttempts,
		"translation.call_timeout_seconds": c.Translation.CallTimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Translation.ContextSize < 0 {
		return errors.New("translation.context_size must be >= 0")
	}
	if c.Translation.BackoffMinSeconds < 0 {
		return errors.New("translation.backoff_min_seconds must be >= 0")
	}
	if c.Translation.BackoffMaxSeconds < c.Translation.BackoffMinSeconds {
		return errors.New("translation.backoff_max_seconds must be >= translation.backoff_min_seconds")
	}
	if c.Translation.SourceLanguage == c.Translation.TargetLanguage {
		return fmt.Errorf("translation.source_language and translation.target_language are both %q", c.Translation.TargetLanguage)
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if !c.Breaker.Enabled {
		return nil
	}
	if c.Breaker.MaxFailures <= 0 {
		return errors.New("breaker.max_failures must be positive when breaker.enabled is true")
	}
	if c.Breaker.OpenSeconds <= 0 {
		return errors.New("breaker.open_seconds must be positive when breaker.enabled is true")
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.MaxFileSizeMB <= 0 {
		return errors.New("server.max_file_size_mb must be positive")
	}
	if strings.ContainsAny(c.Server.OutputSuffix, `/\`) {
		return errors.New("server.output_suffix must not contain path separators")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
