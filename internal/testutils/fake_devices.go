package testutils

import (
	"context"
	"sync"

	"jarvis/pkg/jarvistypes"
)

// SpokenLine is one call to RecordingSpeaker.Speak.
type SpokenLine struct {
	Text    string
	Profile jarvistypes.VoiceProfile
}

// RecordingSpeaker captures speech requests instead of playing audio.
type RecordingSpeaker struct {
	mu    sync.Mutex
	lines []SpokenLine
	Err   error
}

// Speak records the request.
func (s *RecordingSpeaker) Speak(_ context.Context, text string, profile jarvistypes.VoiceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.lines = append(s.lines, SpokenLine{Text: text, Profile: profile})
	return nil
}

// Lines returns everything spoken so far.
func (s *RecordingSpeaker) Lines() []SpokenLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpokenLine(nil), s.lines...)
}

// RecordingSystem captures volume changes.
type RecordingSystem struct {
	mu       sync.Mutex
	controls []string
	Err      error
}

// Volume records the control.
func (s *RecordingSystem) Volume(_ context.Context, control string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.controls = append(s.controls, control)
	return nil
}

// Controls returns the recorded volume controls.
func (s *RecordingSystem) Controls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.controls...)
}

// RecordingNotifier captures desktop notifications.
type RecordingNotifier struct {
	mu       sync.Mutex
	Messages []string
}

// Notify records title and message.
func (n *RecordingNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Messages = append(n.Messages, title+": "+message)
	return nil
}

// Notifications returns the recorded notifications, each formatted as "title: message".
func (n *RecordingNotifier) Notifications() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.Messages...)
}
