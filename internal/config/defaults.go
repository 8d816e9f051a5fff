package config

const (
	defaultConfigPath         = "~/.config/transsrt/config.toml"
	defaultDataDir            = "~/.local/share/transsrt"
	defaultLogDir             = "~/.local/share/transsrt/logs"
	defaultAPIBind            = "127.0.0.1:8080"
	defaultProvider           = ProviderGemini
	defaultEngineTimeout      = 120
	defaultEngineTemperature  = 0.3
	defaultEngineReferer      = "https://github.com/transsrt/transsrt"
	defaultEngineTitle        = "TransSRT"
	defaultSourceLanguage     = "ko"
	defaultTargetLanguage     = "en"
	defaultChunkSize          = 50
	defaultContextSize        = 3
	defaultMaxConcurrent      = 10
	defaultMaxAttempts        = 3
	defaultBackoffMinSeconds  = 2
	defaultBackoffMaxSeconds  = 10
	defaultCallTimeoutSeconds = 120
	defaultBreakerFailures    = 5
	defaultBreakerOpenSeconds = 30
	defaultMaxFileSizeMB      = 10
	defaultNtfyTimeoutSeconds = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Supported engine providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

var defaultModels = map[string]string{
	ProviderGemini:     "gemini-2.0-flash",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderOpenRouter: "google/gemini-2.0-flash-001",
	ProviderMock:       "mock",
}

var defaultBaseURLs = map[string]string{
	ProviderOpenRouter: "https://openrouter.ai/api/v1/chat/completions",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Engine: Engine{
			Provider:       defaultProvider,
			Referer:        defaultEngineReferer,
			Title:          defaultEngineTitle,
			Temperature:    defaultEngineTemperature,
			TimeoutSeconds: defaultEngineTimeout,
		},
		Translation: Translation{
			SourceLanguage:     defaultSourceLanguage,
			TargetLanguage:     defaultTargetLanguage,
			ChunkSize:          defaultChunkSize,
			ContextSize:        defaultContextSize,
			MaxConcurrent:      defaultMaxConcurrent,
			MaxAttempts:        defaultMaxAttempts,
			BackoffMinSeconds:  defaultBackoffMinSeconds,
			BackoffMaxSeconds:  defaultBackoffMaxSeconds,
			CallTimeoutSeconds: defaultCallTimeoutSeconds,
		},
		Breaker: Breaker{
			Enabled:     true,
			MaxFailures: defaultBreakerFailures,
			OpenSeconds: defaultBreakerOpenSeconds,
		},
		Server: Server{
			MaxFileSizeMB: defaultMaxFileSizeMB,
			CORSOrigins:   []string{"*"},
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
