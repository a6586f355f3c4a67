package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// GenerateOptions select the per-call model parameters.
type GenerateOptions struct {
	// Model overrides the client's configured chat model when non-empty.
	Model string
	// Temperature controls sampling; the orchestrator always supplies one.
	Temperature float32
}

// Client wraps a chat model with message assembly and a per-call timeout.
type Client struct {
	chatModel model.BaseChatModel
	cfg       Config
}

// NewClient builds a Client for the configured provider.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	cm, err := NewChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{chatModel: cm, cfg: cfg}, nil
}

// NewClientWithModel wraps an existing chat model. Used by tests to inject a
// fake.
func NewClientWithModel(cm model.BaseChatModel, cfg Config) *Client {
	return &Client{chatModel: cm, cfg: cfg}
}

// ModelName reports the effective chat model for the given override.
func (c *Client) ModelName(override string) string {
	if override != "" {
		return override
	}
	if c.cfg.Model != "" {
		return c.cfg.Model
	}
	return DefaultModelForProvider(c.cfg.Provider)
}

// Generate sends a system+user message pair and returns the raw response
// content. The call is bounded by the configured request timeout; an
// abandoned caller context cancels it early.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error) {
	timeout := time.Duration(c.cfg.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = DefaultRequestTimeoutSeconds * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var messages []*schema.Message
	if systemPrompt != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: systemPrompt})
	}
	messages = append(messages, &schema.Message{Role: schema.User, Content: userPrompt})

	callOpts := []model.Option{model.WithTemperature(opts.Temperature)}
	if opts.Model != "" {
		callOpts = append(callOpts, model.WithModel(opts.Model))
	}

	resp, err := c.chatModel.Generate(ctx, messages, callOpts...)
	if err != nil {
		return "", fmt.Errorf("model generate: %w", err)
	}
	return resp.Content, nil
}
