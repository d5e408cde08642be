package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeEnv(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0600))
}

func TestConfigurationService_NotInitialized(t *testing.T) {
	service := NewConfigurationServiceWithSources("", "", nil)

	_, err := service.GetConfigValue("JARVIS_PROVIDER")
	assert.EqualError(t, err, "configuration service not initialized")
	_, err = service.GetAPIKey("groq")
	assert.EqualError(t, err, "configuration service not initialized")
	assert.EqualError(t, service.SetConfigValue("k", "v"), "configuration service not initialized")
	assert.EqualError(t, service.LoadConfiguration(), "configuration service not initialized")
}

func TestConfigurationService_Priority(t *testing.T) {
	configDir, workDir := t.TempDir(), t.TempDir()
	writeEnv(t, configDir, "JARVIS_PROVIDER=cohere\nJARVIS_VOICE=friday\nGROQ_API_KEY=config-key\n")
	writeEnv(t, workDir, "JARVIS_PROVIDER=gemini\n# comment\nJARVIS_LOG_LEVEL=debug\n")
	environ := []string{"JARVIS_PROVIDER=groq", "PATH=/usr/bin", "ANTHROPIC_API_KEY=env-key"}

	service := NewConfigurationServiceWithSources(configDir, workDir, environ)
	require.NoError(t, service.Initialize())
	require.NoError(t, service.Initialize())

	tests := []struct {
		key  string
		want string
	}{
		{"JARVIS_PROVIDER", "groq"},
		{"JARVIS_VOICE", "friday"},
		{"JARVIS_LOG_LEVEL", "debug"},
		{"PATH", ""},
		{"MISSING", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := service.GetConfigValue(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	paths, err := service.GetConfigurationPaths()
	require.NoError(t, err)
	assert.True(t, paths.ConfigEnvLoaded)
	assert.True(t, paths.LocalEnvLoaded)
	assert.Equal(t, filepath.Join(workDir, ".env"), paths.LocalEnvPath)
	assert.NotContains(t, service.Keys(), "PATH")
}

func TestConfigurationService_GetAPIKey(t *testing.T) {
	environ := []string{
		"JARVIS_GROQ_API_KEY=jarvis-groq",
		"GROQ_API_KEY=plain-groq",
		"COHERE_API_KEY=plain-cohere",
		"GEMINI_API_KEY=  ",
	}
	service := NewConfigurationServiceWithSources("", "", environ)
	require.NoError(t, service.Initialize())

	key, err := service.GetAPIKey("groq")
	require.NoError(t, err)
	assert.Equal(t, "jarvis-groq", key)

	key, err = service.GetAPIKey("Cohere")
	require.NoError(t, err)
	assert.Equal(t, "plain-cohere", key)

	_, err = service.GetAPIKey("gemini")
	assert.EqualError(t, err, "API key not configured for provider gemini (expected JARVIS_GEMINI_API_KEY or GEMINI_API_KEY)")

	assert.Equal(t, []string{"groq", "cohere"}, service.ConfiguredProviders([]string{"groq", "cohere", "gemini", "anthropic"}))
}

func TestConfigurationService_MissingFilesAndReload(t *testing.T) {
	workDir := t.TempDir()
	service := NewConfigurationServiceWithSources(filepath.Join(t.TempDir(), "absent"), workDir, nil)
	require.NoError(t, service.Initialize())

	paths, err := service.GetConfigurationPaths()
	require.NoError(t, err)
	assert.False(t, paths.ConfigEnvLoaded)
	assert.False(t, paths.LocalEnvLoaded)

	require.NoError(t, service.SetConfigValue("JARVIS_SPEAK", "true"))
	v, _ := service.GetConfigValue("JARVIS_SPEAK")
	assert.Equal(t, "true", v)

	writeEnv(t, workDir, "JARVIS_VOICE=robotic\n")
	require.NoError(t, service.LoadConfiguration())
	v, _ = service.GetConfigValue("JARVIS_VOICE")
	assert.Equal(t, "robotic", v)
	v, _ = service.GetConfigValue("JARVIS_SPEAK")
	assert.Empty(t, v)
}

func TestConfigurationService_MalformedEnv(t *testing.T) {
	workDir := t.TempDir()
	writeEnv(t, workDir, "JARVIS_VOICE='unterminated\n")
	service := NewConfigurationServiceWithSources("", workDir, nil)
	err := service.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load local .env")
}
