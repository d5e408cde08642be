package services

import (
	"fmt"
	"sync"

	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

// ProviderInfo describes how to reach one AI provider.
type ProviderInfo struct {
	Name    string
	BaseURL string
	Model   string
}

// Providers lists the supported AI providers in fallback order.
var Providers = []ProviderInfo{
	{Name: "groq", BaseURL: "https://api.groq.com/openai/v1", Model: "llama3-70b-8192"},
	{Name: "cohere", BaseURL: "https://api.cohere.ai/compatibility/v1", Model: "command-r-plus"},
	{Name: "gemini", Model: "gemini-2.0-flash"},
	{Name: "anthropic", Model: "claude-3-5-haiku-latest"},
}

// ProviderNames returns the names of Providers in order.
func ProviderNames() []string {
	names := make([]string, len(Providers))
	for i, p := range Providers {
		names[i] = p.Name
	}
	return names
}

func lookupProvider(name string) (ProviderInfo, bool) {
	for _, p := range Providers {
		if p.Name == name {
			return p, true
		}
	}
	return ProviderInfo{}, false
}

// ClientFactory creates and caches AI clients keyed by provider and API key.
type ClientFactory struct {
	clients map[string]jarvistypes.AIClient
	mutex   sync.Mutex
}

// NewClientFactory creates an empty factory.
func NewClientFactory() *ClientFactory {
	return &ClientFactory{clients: make(map[string]jarvistypes.AIClient)}
}

// GetClientForProvider returns a client for provider using apiKey.
func (f *ClientFactory) GetClientForProvider(provider, apiKey string) (jarvistypes.AIClient, error) {
	info, ok := lookupProvider(provider)
	if !ok {
		return nil, fmt.Errorf("unknown AI provider: %s", provider)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("API key cannot be empty for provider '%s'", provider)
	}

	cacheKey := provider + ":" + apiKey

	f.mutex.Lock()
	defer f.mutex.Unlock()
	if client, exists := f.clients[cacheKey]; exists {
		return client, nil
	}

	var client jarvistypes.AIClient
	switch provider {
	case "gemini":
		client = NewGeminiClient(apiKey, info.Model)
	case "anthropic":
		client = NewAnthropicClient(apiKey, info.Model)
	default:
		client = NewOpenAICompatibleClient(OpenAICompatibleConfig{
			ProviderName: provider,
			APIKey:       apiKey,
			BaseURL:      info.BaseURL,
			Model:        info.Model,
		})
	}
	f.clients[cacheKey] = client

	logger.Debug("Created new provider client", "provider", provider)
	return client, nil
}

// GetCachedClientCount returns the number of cached clients.
func (f *ClientFactory) GetCachedClientCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.clients)
}
