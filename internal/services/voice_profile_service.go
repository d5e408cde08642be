package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"jarvis/internal/catalog"
	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

// Emotion tints how a line is spoken.
type Emotion string

// Supported emotions.
const (
	EmotionNeutral       Emotion = "neutral"
	EmotionExcited       Emotion = "excited"
	EmotionCalm          Emotion = "calm"
	EmotionUrgent        Emotion = "urgent"
	EmotionAuthoritative Emotion = "authoritative"
)

// VoiceProfileService holds the selectable voice profiles and speaks through an injected Speaker.
type VoiceProfileService struct {
	initialized bool

	mu       sync.RWMutex
	speaker  jarvistypes.Speaker
	profiles []jarvistypes.VoiceProfile
	current  jarvistypes.VoiceProfile
	enabled  bool
}

// NewVoiceProfileService creates a service that speaks through speaker. A nil speaker disables speech.
func NewVoiceProfileService(speaker jarvistypes.Speaker) *VoiceProfileService {
	return &VoiceProfileService{speaker: speaker, enabled: speaker != nil}
}

// Name returns the service name "voice" for registration.
func (v *VoiceProfileService) Name() string {
	return "voice"
}

// Initialize loads the embedded voice catalog and selects its default profile.
func (v *VoiceProfileService) Initialize() error {
	if v.initialized {
		return nil
	}
	c, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("failed to load voice profiles: %w", err)
	}
	if len(c.Voices) == 0 {
		return fmt.Errorf("voice catalog is empty")
	}

	v.mu.Lock()
	v.profiles = append([]jarvistypes.VoiceProfile(nil), c.Voices...)
	v.current = v.profiles[0]
	if p, ok := v.lookup(c.DefaultVoiceID); ok {
		v.current = p
	}
	v.mu.Unlock()

	v.initialized = true
	logger.ServiceOperation("voice", "initialize", "profiles", len(c.Voices), "current", v.current.ID)
	return nil
}

func (v *VoiceProfileService) lookup(id string) (jarvistypes.VoiceProfile, bool) {
	for _, p := range v.profiles {
		if p.ID == id {
			return p, true
		}
	}
	return jarvistypes.VoiceProfile{}, false
}

// Profiles returns every profile in catalog order.
func (v *VoiceProfileService) Profiles() []jarvistypes.VoiceProfile {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]jarvistypes.VoiceProfile(nil), v.profiles...)
}

// SetProfile selects the profile with the given id.
func (v *VoiceProfileService) SetProfile(id string) error {
	if !v.initialized {
		return fmt.Errorf("voice service not initialized")
	}
	id = strings.ToLower(strings.TrimSpace(id))
	v.mu.Lock()
	defer v.mu.Unlock()
	p, ok := v.lookup(id)
	if !ok {
		return fmt.Errorf("unknown voice profile: %s", id)
	}
	v.current = p
	logger.Debug("Voice profile changed", "profile", p.Name)
	return nil
}

// CurrentProfile returns the selected profile.
func (v *VoiceProfileService) CurrentProfile() jarvistypes.VoiceProfile {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// SetEnabled turns speech on or off. Speech stays off without a speaker.
func (v *VoiceProfileService) SetEnabled(enabled bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.enabled = enabled && v.speaker != nil
}

// IsEnabled reports whether Speak produces audio.
func (v *VoiceProfileService) IsEnabled() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.enabled
}

// Speak says text with the current profile.
func (v *VoiceProfileService) Speak(ctx context.Context, text string) error {
	return v.SpeakWithEmotion(ctx, text, EmotionNeutral)
}

// SpeakWithEmotion says text with the current profile adjusted for emotion.
// Nothing happens when speech is disabled or text is blank.
func (v *VoiceProfileService) SpeakWithEmotion(ctx context.Context, text string, emotion Emotion) error {
	if !v.initialized {
		return fmt.Errorf("voice service not initialized")
	}
	v.mu.RLock()
	enabled, speaker, profile := v.enabled, v.speaker, v.current
	v.mu.RUnlock()
	if !enabled || strings.TrimSpace(text) == "" {
		return nil
	}
	return speaker.Speak(ctx, PreprocessSpeech(text, profile.Style), ApplyEmotion(profile, emotion))
}

// ApplyEmotion scales a profile's rate, pitch and volume for emotion, keeping each within the
// speech scale (rate 0.1-2, pitch 0-2, volume 0-1).
func ApplyEmotion(profile jarvistypes.VoiceProfile, emotion Emotion) jarvistypes.VoiceProfile {
	rate, pitch, volume := 1.0, 1.0, 1.0
	if profile.Style == "sophisticated" || profile.Style == "cinematic" {
		rate, pitch = 0.95, 0.9
	}
	switch emotion {
	case EmotionExcited:
		rate, pitch = rate*1.1, pitch*1.2
	case EmotionCalm:
		rate, pitch, volume = rate*0.85, pitch*0.9, volume*0.9
	case EmotionUrgent:
		rate, pitch = rate*1.2, pitch*1.1
	case EmotionAuthoritative:
		rate, pitch, volume = rate*0.9, pitch*0.8, volume*1.1
	}
	profile.Rate = math.Max(0.1, math.Min(2, profile.Rate*rate))
	profile.Pitch = math.Max(0, math.Min(2, profile.Pitch*pitch))
	profile.Volume = math.Max(0, math.Min(1, profile.Volume*volume))
	return profile
}

type speechRule struct {
	re   *regexp.Regexp
	repl string
}

func rules(pairs ...string) []speechRule {
	out := make([]speechRule, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, speechRule{re: regexp.MustCompile(pairs[i]), repl: pairs[i+1]})
	}
	return out
}

var speechRules = map[string][]speechRule{
	"formal": rules(
		`\bI'm\b`, "I am",
		`\bcan't\b`, "cannot",
		`\bdon't\b`, "do not",
		`\bwon't\b`, "will not",
		`\bisn't\b`, "is not",
		`\baren't\b`, "are not",
		`(?i)\bhello\b`, "Good day",
		`(?i)\bhi\b`, "Greetings",
		`(?i)\bokay\b`, "Very well",
		`(?i)\bok\b`, "Understood",
		`(?i)\byes\b`, "Affirmative",
		`(?i)\bno\b`, "Negative",
	),
	"efficient": rules(
		`\bI am\b`, "I'm",
		`\bcannot\b`, "can't",
		`\bdo not\b`, "don't",
	),
	"mechanical": rules(
		`\bI'm\b`, "I am",
		`\bcan't\b`, "cannot",
		`\bdon't\b`, "do not",
		`(?i)\bhello\b`, "Greetings",
		`(?i)\byes\b`, "Affirmative",
		`(?i)\bno\b`, "Negative",
	),
}

// PreprocessSpeech rewrites text in the register of a profile style. Sophisticated and cinematic
// voices speak formally with drawn-out pauses; efficient and conversational voices use contractions.
func PreprocessSpeech(text, style string) string {
	switch style {
	case "sophisticated", "cinematic":
		for _, r := range speechRules["formal"] {
			text = r.re.ReplaceAllString(text, r.repl)
		}
		return strings.ReplaceAll(text, ".", "... ")
	case "efficient", "conversational":
		for _, r := range speechRules["efficient"] {
			text = r.re.ReplaceAllString(text, r.repl)
		}
	case "mechanical":
		for _, r := range speechRules["mechanical"] {
			text = r.re.ReplaceAllString(text, r.repl)
		}
	}
	return text
}
