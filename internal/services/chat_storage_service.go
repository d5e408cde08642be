package services

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"jarvis/internal/logger"
	"jarvis/internal/testutils"
	"jarvis/internal/version"
	"jarvis/pkg/jarvistypes"
)

// Storage keys for persisted chat state.
const (
	SessionsKey       = "jarvis-chat-sessions"
	CurrentSessionKey = "jarvis-current-session-id"
)

const (
	defaultTitle   = "New Chat"
	titleMaxLength = 60
	// Sessions with more messages than this survive cleanup regardless of age.
	significantMessageCount = 10
)

var titleStripPattern = regexp.MustCompile(`[^\w\s\-.,!?]`)

// ChatStorageService persists chat sessions in a key/value Storage.
// Sessions are kept newest first as a single JSON array under SessionsKey.
type ChatStorageService struct {
	initialized bool
	storage     jarvistypes.Storage
	mode        jarvistypes.ModeProvider

	mu sync.Mutex
}

// NewChatStorageService creates a service backed by storage.
// In test mode, ids and timestamps are deterministic.
func NewChatStorageService(storage jarvistypes.Storage, mode jarvistypes.ModeProvider) *ChatStorageService {
	return &ChatStorageService{storage: storage, mode: mode}
}

// Name returns the service name "chat_storage" for registration.
func (c *ChatStorageService) Name() string {
	return "chat_storage"
}

// Initialize checks that a storage backend is present.
func (c *ChatStorageService) Initialize() error {
	if c.storage == nil {
		return fmt.Errorf("chat storage service requires a storage backend")
	}
	c.initialized = true
	return nil
}

func (c *ChatStorageService) now() time.Time {
	return testutils.GetCurrentTime(c.mode)
}

func (c *ChatStorageService) newID(prefix string) string {
	return prefix + "_" + testutils.GenerateUUID(c.mode)
}

// load reads every session. Unreadable data is logged and treated as empty.
func (c *ChatStorageService) load() []jarvistypes.ChatSession {
	raw, ok, err := c.storage.GetItem(SessionsKey)
	if err != nil {
		logger.Error("Failed to read chat sessions", "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var sessions []jarvistypes.ChatSession
	if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
		logger.Warn("Discarding unreadable chat sessions", "error", err)
		return nil
	}
	return sessions
}

func (c *ChatStorageService) save(sessions []jarvistypes.ChatSession) error {
	if sessions == nil {
		sessions = []jarvistypes.ChatSession{}
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("failed to encode chat sessions: %w", err)
	}
	if err := c.storage.SetItem(SessionsKey, string(data)); err != nil {
		return fmt.Errorf("failed to save chat sessions: %w", err)
	}
	return nil
}

// GetAllSessions returns every stored session, newest first.
func (c *ChatStorageService) GetAllSessions() ([]jarvistypes.ChatSession, error) {
	if !c.initialized {
		return nil, fmt.Errorf("chat storage service not initialized")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(), nil
}

// CreateSession stores a new session at the front of the list and makes it current.
// An empty title is generated from the first user message.
func (c *ChatStorageService) CreateSession(messages []jarvistypes.Message, title string) (*jarvistypes.ChatSession, error) {
	if !c.initialized {
		return nil, fmt.Errorf("chat storage service not initialized")
	}

	now := c.now()
	if title == "" {
		title = GenerateTitle(messages)
	}
	session := jarvistypes.ChatSession{
		ID:        c.newID("session"),
		Title:     title,
		Messages:  append([]jarvistypes.Message{}, messages...),
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{},
	}
	refreshDerived(&session)

	c.mu.Lock()
	defer c.mu.Unlock()
	sessions := append([]jarvistypes.ChatSession{session}, c.load()...)
	if err := c.save(sessions); err != nil {
		return nil, err
	}
	if err := c.storage.SetItem(CurrentSessionKey, session.ID); err != nil {
		return nil, fmt.Errorf("failed to set current session: %w", err)
	}
	logger.ServiceOperation("chat_storage", "create", "id", session.ID)
	return &session, nil
}

func refreshDerived(s *jarvistypes.ChatSession) {
	s.MessageCount = len(s.Messages)
	s.LastMessage = ""
	if n := len(s.Messages); n > 0 {
		s.LastMessage = s.Messages[n-1].Content
	}
}

// UpdateSession applies update to the session with id and bumps UpdatedAt.
// MessageCount and LastMessage are recomputed from the messages.
func (c *ChatStorageService) UpdateSession(id string, update func(*jarvistypes.ChatSession)) error {
	if !c.initialized {
		return fmt.Errorf("chat storage service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sessions := c.load()
	for i := range sessions {
		if sessions[i].ID != id {
			continue
		}
		update(&sessions[i])
		sessions[i].ID = id
		sessions[i].UpdatedAt = c.now()
		refreshDerived(&sessions[i])
		return c.save(sessions)
	}
	return fmt.Errorf("session with ID '%s' not found", id)
}

// AddMessage appends msg to the session with id.
func (c *ChatStorageService) AddMessage(id string, msg jarvistypes.Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = c.now()
	}
	return c.UpdateSession(id, func(s *jarvistypes.ChatSession) {
		s.Messages = append(s.Messages, msg)
	})
}

// ToggleStar flips the starred flag of a session.
func (c *ChatStorageService) ToggleStar(id string) error {
	return c.UpdateSession(id, func(s *jarvistypes.ChatSession) { s.IsStarred = !s.IsStarred })
}

// ToggleArchive flips the archived flag of a session.
func (c *ChatStorageService) ToggleArchive(id string) error {
	return c.UpdateSession(id, func(s *jarvistypes.ChatSession) { s.IsArchived = !s.IsArchived })
}

// DeleteSession removes a session, clearing the current session when it was current.
// Deleting an unknown id is not an error.
func (c *ChatStorageService) DeleteSession(id string) error {
	if !c.initialized {
		return fmt.Errorf("chat storage service not initialized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sessions := c.load()
	kept := sessions[:0]
	for _, s := range sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	if err := c.save(kept); err != nil {
		return err
	}
	if current, ok, _ := c.storage.GetItem(CurrentSessionKey); ok && current == id {
		return c.storage.RemoveItem(CurrentSessionKey)
	}
	return nil
}

// GetSession returns the session with id, or nil when it does not exist.
func (c *ChatStorageService) GetSession(id string) (*jarvistypes.ChatSession, error) {
	sessions, err := c.GetAllSessions()
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// CurrentSessionID returns the id of the current session, if any.
func (c *ChatStorageService) CurrentSessionID() (string, bool, error) {
	if !c.initialized {
		return "", false, fmt.Errorf("chat storage service not initialized")
	}
	return c.storage.GetItem(CurrentSessionKey)
}

// SetCurrentSession records id as the current session.
func (c *ChatStorageService) SetCurrentSession(id string) error {
	if !c.initialized {
		return fmt.Errorf("chat storage service not initialized")
	}
	return c.storage.SetItem(CurrentSessionKey, id)
}

// ClearCurrentSession forgets the current session.
func (c *ChatStorageService) ClearCurrentSession() error {
	if !c.initialized {
		return fmt.Errorf("chat storage service not initialized")
	}
	return c.storage.RemoveItem(CurrentSessionKey)
}

// GenerateTitle derives a title from the first user message: special characters are removed
// and the result is cut to 60 characters, with "..." marking a cut.
func GenerateTitle(messages []jarvistypes.Message) string {
	for _, m := range messages {
		if m.Type != jarvistypes.MessageUser {
			continue
		}
		title := titleStripPattern.ReplaceAllString(strings.TrimSpace(m.Content), "")
		if len(title) > titleMaxLength {
			title = title[:titleMaxLength] + "..."
		}
		if title == "" {
			return defaultTitle
		}
		return title
	}
	return defaultTitle
}

// Search returns sessions whose title or any message contains query, ignoring case.
func (c *ChatStorageService) Search(query string) ([]jarvistypes.ChatSession, error) {
	sessions, err := c.GetAllSessions()
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	var out []jarvistypes.ChatSession
	for _, s := range sessions {
		if sessionMatches(s, q) {
			out = append(out, s)
		}
	}
	return out, nil
}

func sessionMatches(s jarvistypes.ChatSession, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(s.Title), lowerQuery) {
		return true
	}
	for _, m := range s.Messages {
		if strings.Contains(strings.ToLower(m.Content), lowerQuery) {
			return true
		}
	}
	return false
}

// Filter selects sessions by flag. FilterAll hides archived sessions.
func (c *ChatStorageService) Filter(filter jarvistypes.SessionFilter) ([]jarvistypes.ChatSession, error) {
	sessions, err := c.GetAllSessions()
	if err != nil {
		return nil, err
	}
	var out []jarvistypes.ChatSession
	for _, s := range sessions {
		var keep bool
		switch filter {
		case jarvistypes.FilterStarred:
			keep = s.IsStarred
		case jarvistypes.FilterArchived:
			keep = s.IsArchived
		default:
			keep = !s.IsArchived
		}
		if keep {
			out = append(out, s)
		}
	}
	return out, nil
}

// SortSessions returns a sorted copy of sessions. Ties keep their input order.
func SortSessions(sessions []jarvistypes.ChatSession, by jarvistypes.SessionSort) []jarvistypes.ChatSession {
	out := append([]jarvistypes.ChatSession(nil), sessions...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch by {
		case jarvistypes.SortTitle:
			return a.Title < b.Title
		case jarvistypes.SortStarred:
			return a.IsStarred && !b.IsStarred
		case jarvistypes.SortMessageCount:
			return a.MessageCount > b.MessageCount
		default:
			return a.UpdatedAt.After(b.UpdatedAt)
		}
	})
	return out
}

// Statistics summarizes the stored sessions.
func (c *ChatStorageService) Statistics() (jarvistypes.ChatStatistics, error) {
	sessions, err := c.GetAllSessions()
	if err != nil {
		return jarvistypes.ChatStatistics{}, err
	}
	stats := jarvistypes.ChatStatistics{TotalSessions: len(sessions)}
	for _, s := range sessions {
		stats.TotalMessages += s.MessageCount
		if s.IsStarred {
			stats.StarredSessions++
		}
		if s.IsArchived {
			stats.ArchivedSessions++
		}
	}
	if len(sessions) > 0 {
		stats.AverageMessagesPerSession = int(float64(stats.TotalMessages)/float64(len(sessions)) + 0.5)
	}
	return stats, nil
}

// CleanupOldSessions removes sessions not updated within days, keeping starred sessions and
// sessions with more than ten messages. It returns the number removed.
func (c *ChatStorageService) CleanupOldSessions(days int) (int, error) {
	if !c.initialized {
		return 0, fmt.Errorf("chat storage service not initialized")
	}

	cutoff := c.now().AddDate(0, 0, -days)

	c.mu.Lock()
	defer c.mu.Unlock()
	sessions := c.load()
	var kept []jarvistypes.ChatSession
	for _, s := range sessions {
		if s.IsStarred || s.UpdatedAt.After(cutoff) || s.MessageCount > significantMessageCount {
			kept = append(kept, s)
		}
	}
	removed := len(sessions) - len(kept)
	if removed > 0 {
		if err := c.save(kept); err != nil {
			return 0, err
		}
	}
	return removed, nil
}

// ExportSessions returns every session wrapped in an indented export envelope.
func (c *ChatStorageService) ExportSessions() ([]byte, error) {
	sessions, err := c.GetAllSessions()
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []jarvistypes.ChatSession{}
	}
	export := jarvistypes.ChatExport{
		Version:       version.ExportFormatVersion,
		ExportDate:    c.now(),
		Sessions:      sessions,
		TotalSessions: len(sessions),
	}
	for _, s := range sessions {
		export.TotalMessages += s.MessageCount
	}
	return json.MarshalIndent(export, "", "  ")
}

// ImportSessions merges an export in front of the stored sessions. Every imported session
// gets a fresh "imported_" id so repeated imports never collide.
func (c *ChatStorageService) ImportSessions(data []byte) jarvistypes.ImportResult {
	if !c.initialized {
		return jarvistypes.ImportResult{Message: "chat storage service not initialized"}
	}

	var envelope struct {
		Version  string          `json:"version"`
		Sessions json.RawMessage `json:"sessions"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return jarvistypes.ImportResult{Message: "Error parsing file"}
	}
	trimmed := strings.TrimSpace(string(envelope.Sessions))
	if !strings.HasPrefix(trimmed, "[") {
		return jarvistypes.ImportResult{Message: "Invalid file format"}
	}
	if err := version.IsCompatibleExport(envelope.Version); err != nil {
		logger.Warn("Rejected chat import", "error", err)
		return jarvistypes.ImportResult{Message: "Invalid file format"}
	}

	var imported []jarvistypes.ChatSession
	if err := json.Unmarshal(envelope.Sessions, &imported); err != nil {
		return jarvistypes.ImportResult{Message: "Error parsing file"}
	}
	for i := range imported {
		imported[i].ID = c.newID("imported")
		if imported[i].Tags == nil {
			imported[i].Tags = []string{}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.save(append(imported, c.load()...)); err != nil {
		return jarvistypes.ImportResult{Message: err.Error()}
	}
	return jarvistypes.ImportResult{
		Success:  true,
		Message:  fmt.Sprintf("Successfully imported %d conversations", len(imported)),
		Imported: len(imported),
	}
}

// ExportToFile writes ExportSessions output to path.
func (c *ChatStorageService) ExportToFile(path string) error {
	data, err := c.ExportSessions()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// ImportFromFile imports an export file written by ExportToFile.
func (c *ChatStorageService) ImportFromFile(path string) (jarvistypes.ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jarvistypes.ImportResult{}, fmt.Errorf("failed to read import file: %w", err)
	}
	return c.ImportSessions(data), nil
}
