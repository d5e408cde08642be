package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

const (
	maxResponseTokens   = 1024
	responseTemperature = 0.7
)

// SystemPrompt is sent with every AI request.
const SystemPrompt = "You are JARVIS, an advanced AI assistant. Respond in a helpful, intelligent, and slightly formal manner, " +
	"similar to the AI assistant from Iron Man. Keep responses concise but informative."

// ClientSource resolves the client for a provider name.
type ClientSource func(provider string) (jarvistypes.AIClient, error)

// AIService answers general questions through the configured AI providers,
// falling back through the remaining providers when the selected one fails.
type AIService struct {
	initialized bool
	config      *ConfigurationService
	factory     *ClientFactory
	source      ClientSource

	now             func() time.Time
	mu              sync.RWMutex
	defaultProvider string
}

// RealtimeInformation describes the moment t so answers about the date and time are current.
func RealtimeInformation(t time.Time) string {
	return fmt.Sprintf("Please use this real-time information if needed,\nDay: %s\nDate: %s\nMonth: %s\nYear: %d\nTime: %s\n",
		t.Weekday(), t.Format("02"), t.Month(), t.Year(), t.Format("15 hours 04 minutes 05 seconds"))
}

// NewAIService creates a service resolving API keys through config.
func NewAIService(config *ConfigurationService, defaultProvider string) *AIService {
	s := &AIService{config: config, factory: NewClientFactory(), now: time.Now, defaultProvider: defaultProvider}
	s.source = s.clientFromConfig
	return s
}

// NewAIServiceWithSource creates a service whose clients come from source.
func NewAIServiceWithSource(source ClientSource, defaultProvider string) *AIService {
	return &AIService{source: source, now: time.Now, defaultProvider: defaultProvider}
}

// Name returns the service name "ai" for registration.
func (s *AIService) Name() string {
	return "ai"
}

// Initialize validates the default provider, falling back to groq when it is empty.
func (s *AIService) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.defaultProvider == "" {
		s.defaultProvider = Providers[0].Name
	}
	s.defaultProvider = strings.ToLower(s.defaultProvider)
	if _, ok := lookupProvider(s.defaultProvider); !ok {
		return fmt.Errorf("unknown AI provider: %s", s.defaultProvider)
	}
	s.initialized = true
	return nil
}

func (s *AIService) clientFromConfig(provider string) (jarvistypes.AIClient, error) {
	if s.config == nil {
		return nil, fmt.Errorf("configuration service not available")
	}
	key, err := s.config.GetAPIKey(provider)
	if err != nil {
		return nil, err
	}
	return s.factory.GetClientForProvider(provider, key)
}

// GenerateResponse asks provider, or the default provider when empty. On failure every other
// provider is tried in order; when all fail the error of the first attempt is returned.
func (s *AIService) GenerateResponse(ctx context.Context, prompt, provider string) (*jarvistypes.AIResponse, error) {
	if !s.initialized {
		return nil, fmt.Errorf("ai service not initialized")
	}

	selected := strings.ToLower(provider)
	if selected == "" {
		selected = s.GetDefaultProvider()
	}

	resp, firstErr := s.ask(ctx, selected, prompt)
	if firstErr == nil {
		return resp, nil
	}
	logger.Warn("AI provider failed", "provider", selected, "error", firstErr)

	for _, fallback := range ProviderNames() {
		if fallback == selected {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		logger.Debug("Falling back to provider", "provider", fallback)
		resp, err := s.ask(ctx, fallback, prompt)
		if err == nil {
			return resp, nil
		}
		logger.Debug("Fallback provider failed", "provider", fallback, "error", err)
	}
	return nil, firstErr
}

func (s *AIService) ask(ctx context.Context, provider, prompt string) (*jarvistypes.AIResponse, error) {
	if _, ok := lookupProvider(provider); !ok {
		return nil, fmt.Errorf("unknown AI provider: %s", provider)
	}
	client, err := s.source(provider)
	if err != nil {
		return nil, err
	}
	return client.GenerateResponse(ctx, SystemPrompt+"\n\n"+RealtimeInformation(s.now()), prompt)
}

// SetClock replaces the clock used for the real-time information block.
func (s *AIService) SetClock(now func() time.Time) {
	s.now = now
}

// SetDefaultProvider changes the provider used when none is given.
func (s *AIService) SetDefaultProvider(provider string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if _, ok := lookupProvider(provider); !ok {
		return fmt.Errorf("unknown AI provider: %s", provider)
	}
	s.mu.Lock()
	s.defaultProvider = provider
	s.mu.Unlock()
	return nil
}

// GetDefaultProvider returns the provider used when none is given.
func (s *AIService) GetDefaultProvider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultProvider
}

// GetAvailableProviders returns every supported provider name.
func (s *AIService) GetAvailableProviders() []string {
	return ProviderNames()
}

// HasConfiguredProvider reports whether at least one provider has an API key.
func (s *AIService) HasConfiguredProvider() bool {
	for _, p := range ProviderNames() {
		if client, err := s.source(p); err == nil && client.IsConfigured() {
			return true
		}
	}
	return false
}
