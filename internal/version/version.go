// Package version provides centralized version management for JARVIS.
// It supports semantic versioning, build-time injection and export format checks.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build information that can be set at compile time via -ldflags
var (
	// Version is the semantic version of the application
	Version = "1.2.0"

	// GitCommit is the git commit hash when the binary was built
	GitCommit = "unknown"

	// BuildDate is the date when the binary was built
	BuildDate = "unknown"
)

// ExportFormatVersion is written into chat exports.
const ExportFormatVersion = "1.0"

// versionCodenames maps minor release lines to armor codenames.
var versionCodenames = map[string]string{
	"1.0.0": "Mark I",
	"1.1.0": "Mark II",
	"1.2.0": "Mark III",
	"1.3.0": "Mark IV",
	"2.0.0": "Veronica",
}

// Info represents comprehensive version information
type Info struct {
	Version   string          `json:"version"`
	Codename  string          `json:"codename"`
	GitCommit string          `json:"gitCommit"`
	BuildDate string          `json:"buildDate"`
	GoVersion string          `json:"goVersion"`
	Platform  string          `json:"platform"`
	SemVer    *semver.Version `json:"-"`
}

// GetVersion returns the current version string
func GetVersion() string {
	return Version
}

// GetCodename returns the codename for the current version
func GetCodename() string {
	return GetCodenameForVersion(Version)
}

// GetCodenameForVersion returns the codename of the version's major.minor line.
func GetCodenameForVersion(version string) string {
	sv, err := semver.NewVersion(version)
	if err != nil {
		return ""
	}
	return versionCodenames[fmt.Sprintf("%d.%d.0", sv.Major(), sv.Minor())]
}

// GetInfo returns comprehensive version information
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}

	return &Info{
		Version:   Version,
		Codename:  GetCodename(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		SemVer:    sv,
	}, nil
}

// GetFormattedVersion returns a one-line version string such as
// "JARVIS v1.2.0 'Mark III', commit abc1234, built 2026-01-02".
func GetFormattedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("JARVIS v%s (invalid version)", Version)
	}

	head := fmt.Sprintf("JARVIS v%s", info.Version)
	if info.Codename != "" {
		head += fmt.Sprintf(" '%s'", info.Codename)
	}
	parts := []string{head}

	if info.GitCommit != "unknown" && info.GitCommit != "" {
		shortCommit := info.GitCommit
		if len(shortCommit) > 7 {
			shortCommit = shortCommit[:7]
		}
		parts = append(parts, "commit "+shortCommit)
	}
	if info.BuildDate != "unknown" && info.BuildDate != "" {
		parts = append(parts, "built "+info.BuildDate)
	}

	return strings.Join(parts, ", ")
}

// GetDetailedVersion returns multi-line version information for `jarvis version --detailed`.
func GetDetailedVersion() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("JARVIS v%s (error: %v)", Version, err)
	}

	lines := []string{
		GetFormattedVersion(),
		"Git Commit: " + info.GitCommit,
		"Build Date: " + info.BuildDate,
		"Export Format: " + ExportFormatVersion,
		"Go Version: " + info.GoVersion,
		"Platform: " + info.Platform,
	}
	return strings.Join(lines, "\n")
}

// ValidateVersion validates that the current version is a valid semantic version
func ValidateVersion() error {
	if _, err := semver.NewVersion(Version); err != nil {
		return fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	return nil
}

// IsDevelopment returns true if this appears to be a development build
func IsDevelopment() bool {
	return GitCommit == "unknown" || BuildDate == "unknown"
}

// CompareVersions compares two version strings and returns:
// -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
func CompareVersions(v1, v2 string) (int, error) {
	sv1, err := semver.NewVersion(v1)
	if err != nil {
		return 0, fmt.Errorf("invalid version v1 '%s': %w", v1, err)
	}

	sv2, err := semver.NewVersion(v2)
	if err != nil {
		return 0, fmt.Errorf("invalid version v2 '%s': %w", v2, err)
	}

	return sv1.Compare(sv2), nil
}

// IsCompatibleExport reports whether a chat export written with format version v can be imported.
// Exports without a version are accepted. Any other version must share the current major version.
func IsCompatibleExport(v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid export version '%s': %w", v, err)
	}
	current := semver.MustParse(ExportFormatVersion)
	if sv.Major() != current.Major() {
		return fmt.Errorf("export version %s is not compatible with %s", sv, current)
	}
	return nil
}

// SetBuildInfo sets build information (used for testing)
func SetBuildInfo(version, gitCommit, buildDate string) {
	Version = version
	GitCommit = gitCommit
	BuildDate = buildDate
}
