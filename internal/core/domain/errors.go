package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidRequest is returned when an install request is missing a required field.
	ErrInvalidRequest = zerr.New("invalid install request")

	// ErrMissingModule is returned when no module path was supplied.
	ErrMissingModule = zerr.New("input parameter `module` is required")

	// ErrMissingVersion is returned when no version was supplied.
	ErrMissingVersion = zerr.New("input parameter `version` is required")

	// ErrInvalidModulePath is returned when the module path is not a valid Go module path.
	ErrInvalidModulePath = zerr.New("invalid module path")

	// ErrInvalidToolName is returned when the tool name is empty or contains a path separator.
	ErrInvalidToolName = zerr.New("invalid tool name")

	// ErrInvalidVersion is returned when a version cannot be used as a cache directory name.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrVersionResolutionFailed is returned when a symbolic version cannot be resolved.
	ErrVersionResolutionFailed = zerr.New("unable to determine latest version")

	// ErrBuildFailed is returned when the toolchain install command fails.
	ErrBuildFailed = zerr.New("failed to build tool")

	// ErrBinaryNotFound is returned when the build succeeded but the expected binary is absent.
	ErrBinaryNotFound = zerr.New("binary not found after installation")

	// ErrWorkspaceCreateFailed is returned when the ephemeral build workspace cannot be created.
	ErrWorkspaceCreateFailed = zerr.New("failed to create build workspace")

	// ErrCommandFailed is returned when an external command exits with an error.
	ErrCommandFailed = zerr.New("command failed")

	// ErrCacheLookupFailed is returned when the tool cache cannot be queried.
	ErrCacheLookupFailed = zerr.New("failed to look up tool cache")

	// ErrCacheStoreFailed is returned when an artifact cannot be committed to the tool cache.
	ErrCacheStoreFailed = zerr.New("failed to store tool in cache")

	// ErrCacheRemoveFailed is returned when a cache entry cannot be removed.
	ErrCacheRemoveFailed = zerr.New("failed to remove cache entry")

	// ErrCacheMarkerInvalid is returned when an entry's completion marker cannot be decoded.
	ErrCacheMarkerInvalid = zerr.New("invalid cache entry marker")

	// ErrRemoteFetchFailed is returned when the remote cache cannot be read.
	ErrRemoteFetchFailed = zerr.New("failed to fetch tool from remote cache")

	// ErrRemotePushFailed is returned when the remote cache cannot be written.
	ErrRemotePushFailed = zerr.New("failed to push tool to remote cache")

	// ErrPublishFailed is returned when the install result cannot be published to the runner.
	ErrPublishFailed = zerr.New("failed to publish install result")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidLogFormat is returned when the configured log format is unknown.
	ErrInvalidLogFormat = zerr.New("invalid log format, expected 'auto', 'pretty', 'json' or 'actions'")
)
