// Package detector inspects the process environment to pick output modes.
package detector

import (
	"os"

	"go.trai.ch/toolcache/internal/core/domain"
	"golang.org/x/term"
)

// IsGitHubActions reports whether the process runs inside a GitHub Actions job.
func IsGitHubActions() bool {
	return os.Getenv("GITHUB_ACTIONS") == "true"
}

// IsCI reports whether a CI environment variable is set.
func IsCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ForceANSI reports whether colors should be emitted without a TTY.
// CI log viewers render ANSI sequences even though stderr is a pipe.
func ForceANSI() bool {
	return IsCI() && !IsTerminal(os.Stderr)
}

// DetectLogFormat returns the log format suited to the environment.
func DetectLogFormat() domain.LogFormat {
	if IsGitHubActions() {
		return domain.LogFormatActions
	}
	return domain.LogFormatPretty
}

// ResolveLogFormat applies a configured format on top of detection.
// Auto and unknown values defer to detection.
func ResolveLogFormat(detected, configured domain.LogFormat) domain.LogFormat {
	switch configured {
	case domain.LogFormatPretty, domain.LogFormatJSON, domain.LogFormatActions:
		return configured
	default:
		return detected
	}
}
