package testutils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"jarvis/pkg/jarvistypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertSuccess checks that an automation response succeeded with the expected message.
func AssertSuccess(t *testing.T, resp jarvistypes.AutomationResponse, message string) {
	t.Helper()
	assert.True(t, resp.Success, "expected success, got failure: %s", resp.Message)
	if message != "" {
		assert.Equal(t, message, resp.Message)
	}
}

// AssertFailure checks that an automation response failed with the expected message.
func AssertFailure(t *testing.T, resp jarvistypes.AutomationResponse, message string) {
	t.Helper()
	assert.False(t, resp.Success, "expected failure, got success: %s", resp.Message)
	if message != "" {
		assert.Equal(t, message, resp.Message)
	}
}

// WriteScript writes a batch script into a temporary directory and returns its path.
func WriteScript(t *testing.T, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Eventually waits until cond holds, failing the test after timeout.
func Eventually(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, cond, timeout, time.Millisecond)
}

// TestMode is a ModeProvider that always reports test mode.
var TestMode jarvistypes.ModeProvider = jarvistypes.StaticMode(true)
