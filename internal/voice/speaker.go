// Package voice synthesizes speech with Google Cloud Text-to-Speech and plays it locally.
package voice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"jarvis/internal/logger"
	"jarvis/pkg/jarvistypes"
)

// DefaultLanguage is used when a profile names no language.
const DefaultLanguage = "en-US"

// Limits accepted by the synthesis API.
const (
	minSpeakingRate = 0.25
	maxSpeakingRate = 4.0
	maxPitch        = 20.0
	minVolumeGainDB = -96.0
	maxVolumeGainDB = 16.0
)

// Player plays an encoded MP3 clip, blocking until playback ends or ctx is done.
type Player interface {
	Play(ctx context.Context, mp3 []byte) error
}

// SynthesizeFunc turns a request into encoded audio.
type SynthesizeFunc func(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) ([]byte, error)

// CloudSpeaker implements jarvistypes.Speaker on top of Cloud Text-to-Speech.
// Credentials come from Application Default Credentials.
type CloudSpeaker struct {
	mu         sync.Mutex
	client     *texttospeech.Client
	synthesize SynthesizeFunc
	player     Player
}

// NewCloudSpeaker creates a speaker that plays through player. The API client is created on first use.
func NewCloudSpeaker(player Player) *CloudSpeaker {
	s := &CloudSpeaker{player: player}
	s.synthesize = s.synthesizeWithClient
	return s
}

// NewCloudSpeakerWithSynthesizer creates a speaker with a custom synthesis backend.
func NewCloudSpeakerWithSynthesizer(synthesize SynthesizeFunc, player Player) *CloudSpeaker {
	return &CloudSpeaker{synthesize: synthesize, player: player}
}

// Speak synthesizes text with the profile's voice settings and plays it.
func (s *CloudSpeaker) Speak(ctx context.Context, text string, profile jarvistypes.VoiceProfile) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if s.player == nil {
		return errors.New("no audio player configured")
	}

	audio, err := s.synthesize(ctx, BuildRequest(text, profile))
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	logger.Debug("Synthesized speech", "profile", profile.ID, "bytes", len(audio))
	if err := s.player.Play(ctx, audio); err != nil {
		return fmt.Errorf("failed to play speech: %w", err)
	}
	return nil
}

// Close releases the API client.
func (s *CloudSpeaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *CloudSpeaker) synthesizeWithClient(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) ([]byte, error) {
	s.mu.Lock()
	if s.client == nil {
		client, err := texttospeech.NewClient(ctx)
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("texttospeech.NewClient: %w", err)
		}
		s.client = client
	}
	client := s.client
	s.mu.Unlock()

	resp, err := client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.AudioContent, nil
}

// BuildRequest maps a voice profile onto a synthesis request for MP3 audio.
func BuildRequest(text string, profile jarvistypes.VoiceProfile) *texttospeechpb.SynthesizeSpeechRequest {
	language := profile.Language
	if language == "" {
		language = DefaultLanguage
	}
	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: language,
			Name:         profile.VoiceName,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  SpeakingRate(profile.Rate),
			Pitch:         Pitch(profile.Pitch),
			VolumeGainDb:  VolumeGain(profile.Volume),
		},
	}
}

// SpeakingRate clamps a profile rate into the API range. Zero means normal speed.
func SpeakingRate(rate float64) float64 {
	if rate == 0 {
		return 1
	}
	return clamp(rate, minSpeakingRate, maxSpeakingRate)
}

// Pitch converts a 0-2 profile pitch (1 is neutral) into semitones.
func Pitch(pitch float64) float64 {
	if pitch == 0 {
		return 0
	}
	return clamp((pitch-1)*maxPitch, -maxPitch, maxPitch)
}

// VolumeGain converts a 0-1 linear profile volume into decibels of gain.
func VolumeGain(volume float64) float64 {
	if volume <= 0 {
		return minVolumeGainDB
	}
	return clamp(20*math.Log10(volume), minVolumeGainDB, maxVolumeGainDB)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
