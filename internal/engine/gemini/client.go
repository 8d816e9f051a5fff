// Package gemini backs the translator with Google's Gemini API through the
// google.golang.org/genai SDK.
package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"transsrt/internal/engine"
	"transsrt/internal/services"
)

const (
	component    = "gemini"
	defaultModel = "gemini-2.0-flash"
	systemPrompt = "You are a professional subtitle translator. Follow the output format exactly."
)

// Config captures the runtime settings required to talk to Gemini.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
}

// Client wraps genai's GenerateContent call.
type Client struct {
	api         *genai.Client
	model       string
	temperature float32
}

// NewClient constructs a Gemini client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new client", "api key required", nil)
	}
	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: base}
	}
	api, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "new client", "", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	return &Client{api: api, model: model, temperature: float32(cfg.Temperature)}, nil
}

// Name identifies the engine in logs.
func (c *Client) Name() string { return component }

// Complete generates one reply for prompt.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(c.temperature),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", classify(err)
	}
	if resp == nil {
		return "", engine.EmptyReply(component, "nil response")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		detail := ""
		if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
			detail = "finish_reason=" + string(resp.Candidates[0].FinishReason)
		} else if resp.PromptFeedback != nil {
			detail = "blocked: " + string(resp.PromptFeedback.BlockReason)
		}
		return "", engine.EmptyReply(component, detail)
	}
	return text, nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return classifyAPIError(*apiErrPtr, err)
	}
	return engine.ClassifyTransport(component, err)
}

func classifyAPIError(apiErr genai.APIError, err error) error {
	switch strings.ToUpper(apiErr.Status) {
	case "RESOURCE_EXHAUSTED":
		return services.Wrap(services.ErrRateLimit, component, "complete", apiErr.Message, err)
	case "DEADLINE_EXCEEDED":
		return services.Wrap(services.ErrTimeout, component, "complete", apiErr.Message, err)
	}
	return services.Wrap(engine.MarkerForStatus(apiErr.Code), component, "complete", apiErr.Message, err)
}

var _ engine.Engine = (*Client)(nil)
