package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

// GeminiClient calls Google Gemini. The genai client is created lazily on the first request.
type GeminiClient struct {
	apiKey string
	model  string
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client with lazy initialization.
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, model: model}
}

// GetProviderName returns the provider name for this client.
func (c *GeminiClient) GetProviderName() string {
	return "gemini"
}

// IsConfigured returns true if the client has a valid API key.
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) error {
	if c.client != nil {
		return nil
	}
	if c.apiKey == "" {
		return fmt.Errorf("gemini API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	logger.Debug("Gemini client initialized", "provider", "gemini")
	return nil
}

// GenerateResponse sends prompt with systemPrompt as the system instruction.
func (c *GeminiClient) GenerateResponse(ctx context.Context, systemPrompt, prompt string) (*jarvistypes.AIResponse, error) {
	if err := c.initializeClientIfNeeded(ctx); err != nil {
		return nil, err
	}

	temperature := float32(responseTemperature)
	topP := float32(0.95)
	topK := float32(40)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temperature,
		TopP:              &topP,
		TopK:              &topK,
		MaxOutputTokens:   maxResponseTokens,
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	content := geminiText(result)
	if content == "" {
		return nil, fmt.Errorf("no content received from Gemini")
	}
	return &jarvistypes.AIResponse{Content: content, Provider: "gemini", Model: c.model}, nil
}

// geminiText joins the non-thought text parts of the first candidate.
func geminiText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}
