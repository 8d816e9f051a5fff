// Package openai backs the translator with the OpenAI chat-completions API, or
// any compatible endpoint reachable through base_url.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"transsrt/internal/engine"
)

const (
	component    = "openai"
	systemPrompt = "You are a professional subtitle translator. Follow the output format exactly."
)

// Config captures the runtime settings required to talk to OpenAI.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Temperature    float64
	TimeoutSeconds int
}

// Client wraps go-openai's chat completion call.
type Client struct {
	api         *goopenai.Client
	model       string
	temperature float32
}

// NewClient constructs a client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	clientCfg := goopenai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	if httpClient == nil && cfg.TimeoutSeconds > 0 {
		httpClient = &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second}
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = goopenai.GPT4oMini
	}
	return &Client{
		api:         goopenai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: float32(cfg.Temperature),
	}
}

// Name identifies the engine in logs.
func (c *Client) Name() string { return component }

// Complete sends one chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", engine.EmptyReply(component, "no choices")
	}
	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", engine.EmptyReply(component, "finish_reason="+string(choice.FinishReason))
	}
	return content, nil
}

func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return engine.ClassifyStatus(component, apiErr.HTTPStatusCode, apiErr.Message, 0)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return engine.ClassifyStatus(component, reqErr.HTTPStatusCode, string(reqErr.Body), 0)
	}
	return engine.ClassifyTransport(component, err)
}

var _ engine.Engine = (*Client)(nil)
