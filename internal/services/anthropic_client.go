package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

// AnthropicClient calls the Anthropic Messages API, creating the SDK client on first use.
type AnthropicClient struct {
	apiKey string
	model  string
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client with lazy initialization.
func NewAnthropicClient(apiKey, model string) *AnthropicClient {
	return &AnthropicClient{apiKey: apiKey, model: model}
}

// GetProviderName returns the provider name for this client.
func (c *AnthropicClient) GetProviderName() string {
	return "anthropic"
}

// IsConfigured returns true if the client has a valid API key.
func (c *AnthropicClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *AnthropicClient) initializeClientIfNeeded() error {
	if c.client != nil {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("anthropic API key not configured")
	}
	client := anthropic.NewClient(option.WithAPIKey(c.apiKey))
	c.client = &client
	logger.Debug("Anthropic client initialized", "provider", "anthropic")
	return nil
}

// GenerateResponse sends prompt with systemPrompt as the system block.
func (c *AnthropicClient) GenerateResponse(ctx context.Context, systemPrompt, prompt string) (*jarvistypes.AIResponse, error) {
	if err := c.initializeClientIfNeeded(); err != nil {
		return nil, err
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxResponseTokens,
		Temperature: anthropic.Float(responseTemperature),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		sb.WriteString(block.Text)
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("empty response content")
	}
	return &jarvistypes.AIResponse{Content: sb.String(), Provider: "anthropic", Model: c.model}, nil
}
