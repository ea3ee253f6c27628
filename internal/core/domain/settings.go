package domain

// LogFormat selects the log handler.
type LogFormat string

const (
	// LogFormatAuto picks a format from the environment.
	LogFormatAuto LogFormat = "auto"
	// LogFormatPretty writes colored human-readable lines.
	LogFormatPretty LogFormat = "pretty"
	// LogFormatJSON writes one JSON object per record.
	LogFormatJSON LogFormat = "json"
	// LogFormatActions writes GitHub Actions workflow commands.
	LogFormatActions LogFormat = "actions"
)

// Valid reports whether f is a known log format.
func (f LogFormat) Valid() bool {
	switch f {
	case LogFormatAuto, LogFormatPretty, LogFormatJSON, LogFormatActions:
		return true
	default:
		return false
	}
}

// DefaultGoBinary is the toolchain command used when none is configured.
const DefaultGoBinary = "go"

// Settings is the resolved runtime configuration.
type Settings struct {
	// CacheDir is the root of the persistent tool cache.
	CacheDir string
	// GoBinary is the go command used for `list` and `install`.
	GoBinary string
	// LogFormat selects the log handler.
	LogFormat LogFormat
	// KeepWorkspace disables removal of build workspaces.
	KeepWorkspace bool
	// Remote configures the optional S3 cache tier.
	Remote RemoteSettings
}

// RemoteSettings configures the S3 cache tier.
type RemoteSettings struct {
	Bucket   string
	Region   string
	Prefix   string
	Endpoint string
	// PathStyle forces path-style addressing, needed by most S3-compatible servers.
	PathStyle bool
}

// Enabled reports whether a remote cache is configured.
func (r RemoteSettings) Enabled() bool {
	return r.Bucket != ""
}

// DefaultSettings returns the settings used when no config file or override is present.
func DefaultSettings() Settings {
	return Settings{
		CacheDir:  DefaultCacheRoot(),
		GoBinary:  DefaultGoBinary,
		LogFormat: LogFormatAuto,
	}
}
