// Package desktop adapts operating-system controls: media volume keys and desktop notifications.
package desktop

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/go-vgo/robotgo"

	"jarvis/internal/logger"
)

// volumeKeys maps volume controls to robotgo key names.
var volumeKeys = map[string]string{
	"up":   "audio_vol_up",
	"down": "audio_vol_down",
	"mute": "audio_mute",
}

// KeyTapFunc presses a key.
type KeyTapFunc func(key string) error

// VolumeControl drives the system volume by pressing the media keys.
type VolumeControl struct {
	mu  sync.Mutex
	tap KeyTapFunc
}

// NewVolumeControl creates a volume control backed by robotgo.
func NewVolumeControl() *VolumeControl {
	return &VolumeControl{tap: func(key string) error { return robotgo.KeyTap(key) }}
}

// NewVolumeControlWithTap creates a volume control with a custom key press function.
func NewVolumeControlWithTap(tap KeyTapFunc) *VolumeControl {
	return &VolumeControl{tap: tap}
}

// Volume applies control ("up", "down" or "mute").
func (v *VolumeControl) Volume(ctx context.Context, control string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, ok := volumeKeys[strings.ToLower(control)]
	if !ok {
		return fmt.Errorf("unknown volume control: %s", control)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.tap(key); err != nil {
		return fmt.Errorf("key %s: %w", key, err)
	}
	logger.Debug("Volume key pressed", "control", control, "key", key)
	return nil
}

// NotifyFunc shows one notification.
type NotifyFunc func(title, message string) error

// Notifier posts desktop notifications.
type Notifier struct {
	notify NotifyFunc
	icon   string
}

// NewNotifier creates a notifier backed by beeep. icon may be empty.
func NewNotifier(icon string) *Notifier {
	n := &Notifier{icon: icon}
	n.notify = func(title, message string) error { return beeep.Notify(title, message, n.icon) }
	return n
}

// NewNotifierWithFunc creates a notifier with a custom backend.
func NewNotifierWithFunc(notify NotifyFunc) *Notifier {
	return &Notifier{notify: notify}
}

// Notify shows message under title. Empty messages are dropped.
func (n *Notifier) Notify(title, message string) error {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	logger.Debug("Desktop notification", "title", title, "message", truncate(message, 30))
	if err := n.notify(title, message); err != nil {
		return fmt.Errorf("failed to show notification: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
