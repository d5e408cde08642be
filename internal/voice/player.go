package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
)

// SampleRate is the rate the output device is opened at.
const SampleRate = beep.SampleRate(44100)

// BeepPlayer plays MP3 audio on the default output device. The device is opened lazily
// and shared by every clip; clips never overlap.
type BeepPlayer struct {
	mu     sync.Mutex
	initMu sync.Mutex
	ready  bool
}

// NewBeepPlayer creates a player. No audio device is touched until the first Play.
func NewBeepPlayer() *BeepPlayer {
	return &BeepPlayer{}
}

func (p *BeepPlayer) init() error {
	p.initMu.Lock()
	defer p.initMu.Unlock()
	if p.ready {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("failed to initialize audio output: %w", err)
	}
	p.ready = true
	return nil
}

// Play decodes clip and blocks until it has played. Cancelling ctx stops playback.
func (p *BeepPlayer) Play(ctx context.Context, clip []byte) error {
	if err := p.init(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(clip)))
	if err != nil {
		return fmt.Errorf("failed to decode mp3: %w", err)
	}
	defer streamer.Close()

	var source beep.Streamer = streamer
	if format.SampleRate != SampleRate {
		source = beep.Resample(4, format.SampleRate, SampleRate, streamer)
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(source, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}
