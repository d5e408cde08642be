// Package embedded provides access to embedded help topics.
// Topics are markdown files rendered by the shell with glamour.
package embedded

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

// HelpFS contains all embedded help topics.
//
//go:embed help/*.md
var HelpFS embed.FS

// HelpLoader reads help topics from the embedded filesystem.
type HelpLoader struct{}

// NewHelpLoader creates a new HelpLoader.
func NewHelpLoader() *HelpLoader {
	return &HelpLoader{}
}

// LoadTopic returns the markdown for a topic. The .md extension is optional.
func (h *HelpLoader) LoadTopic(name string) (string, error) {
	if !strings.HasSuffix(name, ".md") {
		name += ".md"
	}

	content, err := HelpFS.ReadFile(path.Join("help", name))
	if err != nil {
		return "", fmt.Errorf("help topic not found: %s", strings.TrimSuffix(name, ".md"))
	}

	return string(content), nil
}

// ListTopics returns the available topic names, sorted.
func (h *HelpLoader) ListTopics() ([]string, error) {
	entries, err := HelpFS.ReadDir("help")
	if err != nil {
		return nil, fmt.Errorf("failed to read help directory: %w", err)
	}

	var topics []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if name := entry.Name(); strings.HasSuffix(name, ".md") {
			topics = append(topics, strings.TrimSuffix(name, ".md"))
		}
	}
	sort.Strings(topics)

	return topics, nil
}

// TopicExists reports whether a topic is embedded.
func (h *HelpLoader) TopicExists(name string) bool {
	_, err := h.LoadTopic(name)
	return err == nil
}
