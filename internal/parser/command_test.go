package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand_BackslashPrefix(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectedName string
		expectedMsg  string
		expectedOpts map[string]string
	}{
		{
			name:         "single word",
			input:        "\\help",
			expectedName: "help",
			expectedOpts: map[string]string{},
		},
		{
			name:         "command with message",
			input:        "\\help scroll",
			expectedName: "help",
			expectedMsg:  "scroll",
			expectedOpts: map[string]string{},
		},
		{
			name:         "hyphenated name",
			input:        "\\close-tabs",
			expectedName: "close-tabs",
			expectedOpts: map[string]string{},
		},
		{
			name:         "bracket options",
			input:        "\\history[limit=5]",
			expectedName: "history",
			expectedOpts: map[string]string{"limit": "5"},
		},
		{
			name:         "options with spaces, flags and message",
			input:        "\\sessions[filter=starred, sort=title, json] pricing plans",
			expectedName: "sessions",
			expectedMsg:  "pricing plans",
			expectedOpts: map[string]string{"filter": "starred", "sort": "title", "json": ""},
		},
		{
			name:         "quoted value with comma",
			input:        "\\export[title=\"a, b\"] chats.json",
			expectedName: "export",
			expectedMsg:  "chats.json",
			expectedOpts: map[string]string{"title": "a, b"},
		},
		{
			name:         "empty brackets",
			input:        "\\queue[] ",
			expectedName: "queue",
			expectedOpts: map[string]string{},
		},
		{
			name:         "name is lowercased and spaces collapse at the edges",
			input:        "  \\EXPORT    my file.json   ",
			expectedName: "export",
			expectedMsg:  "my file.json",
			expectedOpts: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedName, cmd.Name)
			assert.Equal(t, tt.expectedMsg, cmd.Message)
			assert.Equal(t, tt.expectedOpts, cmd.Options)
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no prefix", "scroll down"},
		{"empty", "\\"},
		{"only spaces after prefix", "\\   "},
		{"unclosed bracket", "\\history[limit=5"},
		{"double prefix", "\\\\help"},
		{"digit first", "\\1st"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestIsCommand(t *testing.T) {
	assert.True(t, IsCommand("\\help"))
	assert.True(t, IsCommand("   \\exit"))
	assert.False(t, IsCommand("open youtube"))
	assert.False(t, IsCommand(""))
}

func TestCommand_Options(t *testing.T) {
	cmd, err := ParseCommand("\\history[limit=3, verbose, sort=]")
	require.NoError(t, err)

	n, err := cmd.IntOption("limit", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = cmd.IntOption("missing", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	assert.Equal(t, "date", cmd.Option("sort", "date"))
	assert.Equal(t, "x", cmd.Option("other", "x"))
	assert.True(t, cmd.HasFlag("verbose"))
	assert.False(t, cmd.HasFlag("quiet"))

	bad, err := ParseCommand("\\history[limit=ten]")
	require.NoError(t, err)
	n, err = bad.IntOption("limit", 10)
	assert.Error(t, err)
	assert.Equal(t, 10, n)
}

func TestCommand_String(t *testing.T) {
	cmd, err := ParseCommand("\\sessions[sort=title, json] pricing")
	require.NoError(t, err)
	assert.Equal(t, "\\sessions[json, sort=\"title\"] pricing", cmd.String())

	again, err := ParseCommand(cmd.String())
	require.NoError(t, err)
	assert.Equal(t, cmd, again)
}
