package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/toolcache/internal/adapters/detector"
	"go.trai.ch/toolcache/internal/core/domain"
)

func TestIsCI(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{value: "true", want: true},
		{value: "1", want: true},
		{value: "false", want: false},
		{value: "", want: false},
	}

	for _, tt := range tests {
		t.Run("CI="+tt.value, func(t *testing.T) {
			t.Setenv("CI", tt.value)
			assert.Equal(t, tt.want, detector.IsCI())
		})
	}
}

func TestForceANSI(t *testing.T) {
	t.Setenv("CI", "")
	assert.False(t, detector.ForceANSI())
}

func TestDetectLogFormat(t *testing.T) {
	t.Run("actions runner", func(t *testing.T) {
		t.Setenv("GITHUB_ACTIONS", "true")
		assert.True(t, detector.IsGitHubActions())
		assert.Equal(t, domain.LogFormatActions, detector.DetectLogFormat())
	})

	t.Run("elsewhere", func(t *testing.T) {
		t.Setenv("GITHUB_ACTIONS", "")
		assert.False(t, detector.IsGitHubActions())
		assert.Equal(t, domain.LogFormatPretty, detector.DetectLogFormat())
	})
}

func TestResolveLogFormat(t *testing.T) {
	tests := []struct {
		name       string
		detected   domain.LogFormat
		configured domain.LogFormat
		want       domain.LogFormat
	}{
		{name: "auto defers", detected: domain.LogFormatActions, configured: domain.LogFormatAuto, want: domain.LogFormatActions},
		{name: "empty defers", detected: domain.LogFormatPretty, configured: "", want: domain.LogFormatPretty},
		{name: "json wins", detected: domain.LogFormatActions, configured: domain.LogFormatJSON, want: domain.LogFormatJSON},
		{name: "pretty wins", detected: domain.LogFormatActions, configured: domain.LogFormatPretty, want: domain.LogFormatPretty},
		{name: "actions wins", detected: domain.LogFormatPretty, configured: domain.LogFormatActions, want: domain.LogFormatActions},
		{name: "unknown defers", detected: domain.LogFormatPretty, configured: "xml", want: domain.LogFormatPretty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.ResolveLogFormat(tt.detected, tt.configured))
		})
	}
}
