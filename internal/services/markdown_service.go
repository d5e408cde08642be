package services

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"jarvis/internal/data/embedded"
	"jarvis/internal/logger"
)

const defaultWordWrap = 80

// MarkdownService renders help topics and AI answers with Glamour.
type MarkdownService struct {
	initialized bool
	style       string
	renderer    *glamour.TermRenderer
	help        *embedded.HelpLoader
}

// NewMarkdownService creates a service rendering with a Glamour style such as "auto",
// "dark", "light" or "notty". An empty style means "auto".
func NewMarkdownService(style string) *MarkdownService {
	if style == "" {
		style = "auto"
	}
	return &MarkdownService{style: style, help: embedded.NewHelpLoader()}
}

// Name returns the service name "markdown" for registration.
func (m *MarkdownService) Name() string {
	return "markdown"
}

// Initialize builds the renderer for the configured style.
func (m *MarkdownService) Initialize() error {
	renderer, err := newRenderer(m.style, defaultWordWrap)
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	m.renderer = renderer
	m.initialized = true
	logger.Debug("MarkdownService initialized", "style", m.style)
	return nil
}

func newRenderer(style string, wrap int) (*glamour.TermRenderer, error) {
	styleOpt := glamour.WithStandardStyle(style)
	if style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	return glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(wrap))
}

// Render renders markdown to ANSI terminal output.
func (m *MarkdownService) Render(markdown string) (string, error) {
	if !m.initialized {
		return "", fmt.Errorf("markdown service not initialized")
	}
	if strings.TrimSpace(markdown) == "" {
		return "", fmt.Errorf("markdown content cannot be empty")
	}
	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return rendered, nil
}

// RenderTopic renders an embedded help topic such as "scroll" or "automation".
func (m *MarkdownService) RenderTopic(topic string) (string, error) {
	content, err := m.help.LoadTopic(topic)
	if err != nil {
		return "", err
	}
	return m.Render(content)
}

// Topics lists the embedded help topics.
func (m *MarkdownService) Topics() ([]string, error) {
	return m.help.ListTopics()
}

// SetWordWrap rebuilds the renderer with a new wrap width.
func (m *MarkdownService) SetWordWrap(width int) error {
	if !m.initialized {
		return fmt.Errorf("markdown service not initialized")
	}
	if width <= 0 {
		return fmt.Errorf("word wrap width must be positive, got %d", width)
	}
	renderer, err := newRenderer(m.style, width)
	if err != nil {
		return fmt.Errorf("failed to create renderer with word wrap %d: %w", width, err)
	}
	m.renderer = renderer
	return nil
}
