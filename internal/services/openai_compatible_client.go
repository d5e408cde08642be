package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

// OpenAICompatibleClient talks to providers exposing the OpenAI Chat Completions API.
// Groq and Cohere's compatibility endpoint are both reached through it.
type OpenAICompatibleClient struct {
	providerName string
	apiKey       string
	baseURL      string
	model        string
	client       *openai.Client
}

// OpenAICompatibleConfig holds configuration for the OpenAI-compatible client.
type OpenAICompatibleConfig struct {
	ProviderName string
	APIKey       string
	BaseURL      string
	Model        string
}

// NewOpenAICompatibleClient creates a client; the SDK client is built on first use.
func NewOpenAICompatibleClient(config OpenAICompatibleConfig) *OpenAICompatibleClient {
	return &OpenAICompatibleClient{
		providerName: config.ProviderName,
		apiKey:       config.APIKey,
		baseURL:      strings.TrimSuffix(config.BaseURL, "/"),
		model:        config.Model,
	}
}

// GetProviderName returns the provider name for this client.
func (c *OpenAICompatibleClient) GetProviderName() string {
	return c.providerName
}

// IsConfigured returns true if the client has an API key and base URL.
func (c *OpenAICompatibleClient) IsConfigured() bool {
	return c.apiKey != "" && c.baseURL != ""
}

func (c *OpenAICompatibleClient) initializeClientIfNeeded() error {
	if c.client != nil {
		return nil
	}
	if !c.IsConfigured() {
		return fmt.Errorf("%s client not configured: missing API key or base URL", c.providerName)
	}
	client := openai.NewClient(option.WithAPIKey(c.apiKey), option.WithBaseURL(c.baseURL))
	c.client = &client
	logger.Debug("OpenAI-compatible client initialized", "provider", c.providerName, "baseURL", c.baseURL)
	return nil
}

// GenerateResponse sends the system prompt and a single user prompt.
func (c *OpenAICompatibleClient) GenerateResponse(ctx context.Context, systemPrompt, prompt string) (*jarvistypes.AIResponse, error) {
	if err := c.initializeClientIfNeeded(); err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(maxResponseTokens),
		Temperature: openai.Float(responseTemperature),
		TopP:        openai.Float(1),
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.providerName, err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%s returned no content", c.providerName)
	}

	logger.Debug("OpenAI-compatible response received", "provider", c.providerName, "content_length", len(completion.Choices[0].Message.Content))
	return &jarvistypes.AIResponse{
		Content:  completion.Choices[0].Message.Content,
		Provider: c.providerName,
		Model:    c.model,
	}, nil
}
