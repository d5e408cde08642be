package jarvistypes

import (
	"context"
	"time"
)

// MessageType distinguishes user input from assistant replies.
type MessageType string

// Message types stored in chat sessions.
const (
	MessageUser      MessageType = "user"
	MessageAssistant MessageType = "assistant"
)

// Message is one chat message.
type Message struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatSession is a persisted conversation.
type ChatSession struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Messages     []Message `json:"messages"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	IsStarred    bool      `json:"isStarred"`
	IsArchived   bool      `json:"isArchived"`
	Tags         []string  `json:"tags"`
	MessageCount int       `json:"messageCount"`
	LastMessage  string    `json:"lastMessage,omitempty"`
}

// ChatExport is the on-disk export envelope for chat sessions.
type ChatExport struct {
	Version       string        `json:"version"`
	ExportDate    time.Time     `json:"exportDate"`
	Sessions      []ChatSession `json:"sessions"`
	TotalSessions int           `json:"totalSessions"`
	TotalMessages int           `json:"totalMessages"`
}

// ImportResult reports the outcome of a chat import.
type ImportResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Imported int    `json:"imported"`
}

// ChatStatistics summarizes stored sessions.
type ChatStatistics struct {
	TotalSessions             int `json:"totalSessions"`
	TotalMessages             int `json:"totalMessages"`
	StarredSessions           int `json:"starredSessions"`
	ArchivedSessions          int `json:"archivedSessions"`
	AverageMessagesPerSession int `json:"averageMessagesPerSession"`
}

// SessionFilter selects sessions by flag.
type SessionFilter string

// Session filters.
const (
	FilterAll      SessionFilter = "all"
	FilterStarred  SessionFilter = "starred"
	FilterArchived SessionFilter = "archived"
)

// SessionSort orders sessions.
type SessionSort string

// Session orderings.
const (
	SortDate         SessionSort = "date"
	SortTitle        SessionSort = "title"
	SortStarred      SessionSort = "starred"
	SortMessageCount SessionSort = "messageCount"
)

// VoiceProfile is a named speech-synthesis tuple.
type VoiceProfile struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Rate        float64 `yaml:"rate" json:"rate"`
	Pitch       float64 `yaml:"pitch" json:"pitch"`
	Volume      float64 `yaml:"volume" json:"volume"`
	Style       string  `yaml:"style" json:"style"`
	Language    string  `yaml:"language" json:"language"`
	VoiceName   string  `yaml:"voice_name" json:"voiceName"`
	Description string  `yaml:"description" json:"description"`
}

// AIResponse is a chat completion returned by a provider.
type AIResponse struct {
	Content  string `json:"content"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// AIClient is implemented by chat-completion providers.
type AIClient interface {
	GetProviderName() string
	IsConfigured() bool
	GenerateResponse(ctx context.Context, systemPrompt, prompt string) (*AIResponse, error)
}
