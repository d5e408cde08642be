package desktop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/pkg/jarvistypes"
)

var (
	_ jarvistypes.SystemControl = (*VolumeControl)(nil)
	_ jarvistypes.Notifier      = (*Notifier)(nil)
)

func TestVolumeControl_Keys(t *testing.T) {
	var pressed []string
	v := NewVolumeControlWithTap(func(key string) error {
		pressed = append(pressed, key)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, v.Volume(ctx, "up"))
	require.NoError(t, v.Volume(ctx, "DOWN"))
	require.NoError(t, v.Volume(ctx, "mute"))
	assert.Equal(t, []string{"audio_vol_up", "audio_vol_down", "audio_mute"}, pressed)

	err := v.Volume(ctx, "louder")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown volume control")
	assert.Len(t, pressed, 3)
}

func TestVolumeControl_Errors(t *testing.T) {
	v := NewVolumeControlWithTap(func(string) error { return errors.New("no display") })
	err := v.Volume(context.Background(), "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio_vol_up")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, v.Volume(ctx, "up"), context.Canceled)
}

func TestNotifier(t *testing.T) {
	var got []string
	n := NewNotifierWithFunc(func(title, message string) error {
		got = append(got, title+"|"+message)
		return nil
	})

	require.NoError(t, n.Notify("JARVIS", " Opened YouTube "))
	require.NoError(t, n.Notify("JARVIS", "   "))
	assert.Equal(t, []string{"JARVIS|Opened YouTube"}, got)

	failing := NewNotifierWithFunc(func(string, string) error { return errors.New("no bus") })
	assert.Error(t, failing.Notify("JARVIS", "hello"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 30))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
