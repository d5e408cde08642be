package services

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/list"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"jarvis/internal/data/embedded"
	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

// StyleConfig is one style entry of a theme file.
type StyleConfig struct {
	Foreground string `yaml:"foreground"`
	Background string `yaml:"background"`
	Bold       bool   `yaml:"bold"`
	Italic     bool   `yaml:"italic"`
	Underline  bool   `yaml:"underline"`
}

type themeFile struct {
	Name   string                 `yaml:"name"`
	Styles map[string]StyleConfig `yaml:"styles"`
}

// Theme holds the lipgloss styles used to print shell output.
type Theme struct {
	Name      string
	Success   lipgloss.Style
	Failure   lipgloss.Style
	Info      lipgloss.Style
	Warning   lipgloss.Style
	Command   lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
}

// ThemeService selects between the embedded themes.
// Terminals without color support always get the plain theme.
type ThemeService struct {
	initialized bool
	themes      map[string]*Theme
	profile     termenv.Profile
	current     string
}

// NewThemeService creates a service that detects the color profile from the environment.
func NewThemeService() *ThemeService {
	return NewThemeServiceWithProfile(termenv.EnvColorProfile())
}

// NewThemeServiceWithProfile creates a service for a known color profile.
func NewThemeServiceWithProfile(profile termenv.Profile) *ThemeService {
	return &ThemeService{themes: make(map[string]*Theme), profile: profile, current: "default"}
}

// Name returns the service name "theme" for registration.
func (t *ThemeService) Name() string {
	return "theme"
}

// Initialize parses the embedded theme files.
func (t *ThemeService) Initialize() error {
	files := map[string][]byte{
		"default": embedded.DefaultThemeData,
		"plain":   embedded.PlainThemeData,
	}
	for name, data := range files {
		theme, err := parseTheme(data)
		if err != nil {
			return fmt.Errorf("failed to load theme %s: %w", name, err)
		}
		t.themes[name] = theme
	}
	if t.profile == termenv.Ascii {
		t.current = "plain"
	}
	t.initialized = true
	logger.ServiceOperation("theme", "initialize", "theme", t.current, "profile", t.profile)
	return nil
}

func parseTheme(data []byte) (*Theme, error) {
	var f themeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}
	return &Theme{
		Name:      f.Name,
		Success:   createStyle(f.Styles["success"]),
		Failure:   createStyle(f.Styles["failure"]),
		Info:      createStyle(f.Styles["info"]),
		Warning:   createStyle(f.Styles["warning"]),
		Command:   createStyle(f.Styles["command"]),
		Highlight: createStyle(f.Styles["highlight"]),
		Muted:     createStyle(f.Styles["muted"]),
	}, nil
}

func createStyle(config StyleConfig) lipgloss.Style {
	style := lipgloss.NewStyle()
	if config.Foreground != "" {
		style = style.Foreground(lipgloss.Color(config.Foreground))
	}
	if config.Background != "" {
		style = style.Background(lipgloss.Color(config.Background))
	}
	return style.Bold(config.Bold).Italic(config.Italic).Underline(config.Underline)
}

// SetTheme switches the active theme. Colorless terminals stay on plain.
func (t *ThemeService) SetTheme(name string) error {
	if !t.initialized {
		return fmt.Errorf("theme service not initialized")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := t.themes[name]; !ok {
		return fmt.Errorf("unknown theme: %s", name)
	}
	if t.profile != termenv.Ascii {
		t.current = name
	}
	return nil
}

// Current returns the active theme, or an unstyled theme before Initialize.
func (t *ThemeService) Current() *Theme {
	if theme, ok := t.themes[t.current]; ok {
		return theme
	}
	plain := lipgloss.NewStyle()
	return &Theme{Name: "plain", Success: plain, Failure: plain, Info: plain, Warning: plain, Command: plain, Highlight: plain, Muted: plain}
}

// RenderResponse formats an automation response for the terminal.
func (t *ThemeService) RenderResponse(resp jarvistypes.AutomationResponse) string {
	theme := t.Current()
	if !resp.Success {
		return theme.Failure.Render("✗ " + resp.Message)
	}
	line := theme.Success.Render("✓ " + resp.Message)
	if resp.ExecutionTime > 0 {
		line += " " + theme.Muted.Render(fmt.Sprintf("(%dms)", resp.ExecutionTime.Milliseconds()))
	}
	return line
}

// RenderList renders items as a bulleted list.
func (t *ThemeService) RenderList(items []string) string {
	l := list.New().EnumeratorStyle(t.Current().Muted)
	for _, item := range items {
		l.Item(item)
	}
	return l.String()
}
