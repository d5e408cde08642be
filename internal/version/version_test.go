package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuildInfo(t *testing.T, version, commit, date string) {
	t.Helper()
	oldVersion, oldCommit, oldDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { SetBuildInfo(oldVersion, oldCommit, oldDate) })
	SetBuildInfo(version, commit, date)
}

func TestGetCodenameForVersion(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"1.0.0", "Mark I"},
		{"1.2.7", "Mark III"},
		{"1.3.0-rc.1", "Mark IV"},
		{"2.0.0+42.abc", "Veronica"},
		{"0.9.0", ""},
		{"invalid", ""},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCodenameForVersion(tt.version))
		})
	}
}

func TestGetFormattedVersion(t *testing.T) {
	withBuildInfo(t, "1.2.0", "abcdef0123456", "2026-01-02")
	assert.Equal(t, "JARVIS v1.2.0 'Mark III', commit abcdef0, built 2026-01-02", GetFormattedVersion())

	SetBuildInfo("0.9.1", "unknown", "unknown")
	assert.Equal(t, "JARVIS v0.9.1", GetFormattedVersion())
	assert.True(t, IsDevelopment())

	SetBuildInfo("not-semver", "unknown", "unknown")
	assert.Equal(t, "JARVIS vnot-semver (invalid version)", GetFormattedVersion())
	assert.Error(t, ValidateVersion())
}

func TestGetDetailedVersion(t *testing.T) {
	withBuildInfo(t, "1.1.0", "abc", "2026-10-15")
	detailed := GetDetailedVersion()
	lines := strings.Split(detailed, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "JARVIS v1.1.0 'Mark II', commit abc, built 2026-10-15", lines[0])
	assert.Contains(t, detailed, "Export Format: 1.0")
}

func TestCompareVersions(t *testing.T) {
	cmp, err := CompareVersions("1.2.0", "1.10.0")
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	cmp, err = CompareVersions("2.0.0", "2.0.0")
	require.NoError(t, err)
	assert.Equal(t, 0, cmp)

	_, err = CompareVersions("x", "1.0.0")
	assert.ErrorContains(t, err, "invalid version v1")
}

func TestIsCompatibleExport(t *testing.T) {
	tests := []struct {
		version string
		wantErr string
	}{
		{"1.0", ""},
		{"1.4.2", ""},
		{"", ""},
		{"2.0", "export version 2.0.0 is not compatible with 1.0.0"},
		{"0.9", "export version 0.9.0 is not compatible with 1.0.0"},
		{"banana", "invalid export version 'banana'"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			err := IsCompatibleExport(tt.version)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
