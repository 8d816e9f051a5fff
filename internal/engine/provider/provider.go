// Package provider builds the engine selected by configuration.
package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"transsrt/internal/config"
	"transsrt/internal/engine"
	"transsrt/internal/engine/gemini"
	"transsrt/internal/engine/openai"
	"transsrt/internal/engine/openrouter"
	"transsrt/internal/logging"
	"transsrt/internal/services"
)

// Option customizes engine construction.
type Option func(*options)

type options struct {
	wrap []func(engine.Engine) engine.Engine
}

// WithBackendWrap decorates the backend client before the circuit breaker is
// applied, so the breaker observes whatever the wrapper returns.
func WithBackendWrap(wrap func(engine.Engine) engine.Engine) Option {
	return func(o *options) { o.wrap = append(o.wrap, wrap) }
}

// New returns the configured engine, wrapped in a circuit breaker when enabled.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (engine.Engine, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "provider", "new", "config is nil", nil)
	}
	if err := cfg.RequireEngineCredentials(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "provider", "new", "", err)
	}
	eng, err := build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	for _, wrap := range o.wrap {
		eng = wrap(eng)
	}
	logger = logging.NewComponentLogger(logger, "engine")
	logger.Debug("engine configured",
		logging.String("provider", cfg.Engine.Provider),
		logging.String("model", cfg.Engine.Model),
		logging.Bool("breaker", cfg.Breaker.Enabled),
	)
	if !cfg.Breaker.Enabled {
		return eng, nil
	}
	return engine.NewBreaker(eng, engine.BreakerSettings{
		MaxFailures:      cfg.Breaker.MaxFailures,
		OpenFor:          time.Duration(cfg.Breaker.OpenSeconds) * time.Second,
		HalfOpenRequests: cfg.Translation.MaxConcurrent,
	}, logger), nil
}

func build(ctx context.Context, cfg *config.Config) (engine.Engine, error) {
	e := cfg.Engine
	switch e.Provider {
	case config.ProviderMock:
		return engine.NewMock(cfg.Translation.TargetLanguage), nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      e.APIKey,
			BaseURL:     e.BaseURL,
			Model:       e.Model,
			Temperature: e.Temperature,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:         e.APIKey,
			BaseURL:        e.BaseURL,
			Model:          e.Model,
			Temperature:    e.Temperature,
			TimeoutSeconds: e.TimeoutSeconds,
		}, nil), nil
	case config.ProviderOpenRouter:
		return openrouter.NewClient(openrouter.Config{
			APIKey:         e.APIKey,
			BaseURL:        e.BaseURL,
			Model:          e.Model,
			Referer:        e.Referer,
			Title:          e.Title,
			Temperature:    e.Temperature,
			TimeoutSeconds: e.TimeoutSeconds,
		}), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "provider", "new", fmt.Sprintf("unknown engine provider %q", e.Provider), nil)
	}
}
