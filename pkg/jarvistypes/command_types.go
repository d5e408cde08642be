package jarvistypes

import (
	"fmt"
	"strconv"
	"time"
)

// CommandKind identifies the dispatcher handler responsible for a StructuredCommand.
type CommandKind string

// Command kinds produced by the grammar and understood by the dispatcher.
const (
	KindGeneral           CommandKind = "general"
	KindOpen              CommandKind = "open"
	KindPlay              CommandKind = "play"
	KindSearch            CommandKind = "search"
	KindGenerateImage     CommandKind = "generateImage"
	KindGetTime           CommandKind = "getTime"
	KindGetWeather        CommandKind = "getWeather"
	KindClose             CommandKind = "close"
	KindVolume            CommandKind = "volume"
	KindBrowser           CommandKind = "browser"
	KindMedia             CommandKind = "media"
	KindOpenAndSearch     CommandKind = "openAndSearch"
	KindSmartSearch       CommandKind = "smartSearch"
	KindMultiSearch       CommandKind = "multiSearch"
	KindMultiTab          CommandKind = "multiTab"
	KindScroll            CommandKind = "scroll"
	KindSmartNavigation   CommandKind = "smartNavigation"
	KindContentAnalysis   CommandKind = "contentAnalysis"
	KindAutomatedWorkflow CommandKind = "automatedWorkflow"
	KindSocialMedia       CommandKind = "socialMediaManager"
	KindProductivity      CommandKind = "productivitySuite"
	KindDeveloperTools    CommandKind = "developerTools"
	KindEntertainment     CommandKind = "entertainmentHub"
	KindResearchAssistant CommandKind = "researchAssistant"
	KindAIAssisted        CommandKind = "aiAssisted"
	KindWebAutomation     CommandKind = "webAutomation"
)

// Confidence values attached by the grammar.
const (
	ConfidenceSpecific = 0.9
	ConfidenceGeneral  = 0.5
)

// Priority affects whether a command may bypass the dispatcher queue.
type Priority string

// Supported priorities. Only PriorityHigh changes dispatch behavior.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// StructuredCommand is the normalized representation of user intent produced by the grammar
// and consumed by the dispatcher. It must be treated as immutable once produced.
type StructuredCommand struct {
	Kind            CommandKind         `json:"kind"`
	Target          string              `json:"target,omitempty"`
	Action          string              `json:"action,omitempty"`
	Parameters      map[string]any      `json:"parameters,omitempty"`
	ChainedCommands []StructuredCommand `json:"chainedCommands,omitempty"`
	Priority        Priority            `json:"priority,omitempty"`
	Confidence      float64             `json:"confidence,omitempty"`
}

// String returns a compact description used in logs and queue listings.
func (c StructuredCommand) String() string {
	switch {
	case c.Action != "" && c.Target != "":
		return fmt.Sprintf("%s:%s(%s)", c.Kind, c.Action, c.Target)
	case c.Action != "":
		return fmt.Sprintf("%s:%s", c.Kind, c.Action)
	case c.Target != "":
		return fmt.Sprintf("%s(%s)", c.Kind, c.Target)
	}
	return string(c.Kind)
}

// Param returns the raw parameter value for key.
func (c StructuredCommand) Param(key string) (any, bool) {
	if c.Parameters == nil {
		return nil, false
	}
	v, ok := c.Parameters[key]
	return v, ok && v != nil
}

// StringParam returns a string parameter, or def when it is missing or empty.
func (c StructuredCommand) StringParam(key, def string) string {
	v, ok := c.Param(key)
	if !ok {
		return def
	}
	switch s := v.(type) {
	case string:
		if s == "" {
			return def
		}
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

// IntParam returns an integer parameter, or def when it is missing, zero or not numeric.
func (c StructuredCommand) IntParam(key string, def int) int {
	v, ok := c.Param(key)
	if !ok {
		return def
	}
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case float64:
		n = int(x)
	case time.Duration:
		n = int(x / time.Millisecond)
	case string:
		parsed, err := strconv.Atoi(x)
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if n == 0 {
		return def
	}
	return n
}

// FloatParam returns a float parameter, or def when it is missing or not numeric.
func (c StructuredCommand) FloatParam(key string, def float64) float64 {
	v, ok := c.Param(key)
	if !ok {
		return def
	}
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return def
		}
		return f
	}
	return def
}

// BoolParam returns a boolean parameter, or def when it is missing.
func (c StructuredCommand) BoolParam(key string, def bool) bool {
	v, ok := c.Param(key)
	if !ok {
		return def
	}
	if b, isBool := v.(bool); isBool {
		return b
	}
	return def
}

// StringsParam returns a string slice parameter. A single string is returned as a one-element slice.
func (c StructuredCommand) StringsParam(key string) []string {
	v, ok := c.Param(key)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []string:
		out := make([]string, len(x))
		copy(out, x)
		return out
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{x}
	}
	return nil
}

// AutomationResponse is the result of executing one StructuredCommand.
type AutomationResponse struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	Data          any           `json:"data,omitempty"`
	ExecutionTime time.Duration `json:"executionTime,omitempty"`
}

// Succeeded builds a successful response.
func Succeeded(message string, data any) AutomationResponse {
	return AutomationResponse{Success: true, Message: message, Data: data}
}

// Failed builds a failure response.
func Failed(message string) AutomationResponse {
	return AutomationResponse{Success: false, Message: message}
}

// HistoryEntry records one dispatcher execution for diagnostics.
type HistoryEntry struct {
	Command   StructuredCommand  `json:"command"`
	Response  AutomationResponse `json:"response"`
	Timestamp time.Time          `json:"timestamp"`
}

// QueueStatus describes pending dispatcher work.
type QueueStatus struct {
	Length   int      `json:"length"`
	Commands []string `json:"commands"`
}
