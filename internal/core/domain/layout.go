package domain

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	// ToolCacheDirName is the directory created under the user cache dir when no runner cache is available.
	ToolCacheDirName = "toolcache"

	// ConfigFileName is the name of the optional configuration file.
	ConfigFileName = "toolcache.yaml"

	// WorkspacePattern is the os.MkdirTemp pattern for build workspaces.
	WorkspacePattern = "gobin-"

	// CompleteMarkerSuffix is appended to the arch directory name to form the completion marker.
	CompleteMarkerSuffix = ".complete"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// ExecPerm is the permission given to cached binaries (rwxr-xr-x).
	ExecPerm = 0o755
)

// DefaultCacheRoot returns the root directory of the persistent tool cache.
// The GitHub runner's RUNNER_TOOL_CACHE wins so entries are shared with other
// actions using the same cache; otherwise the user cache dir is used.
func DefaultCacheRoot() string {
	if dir := os.Getenv("RUNNER_TOOL_CACHE"); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, ToolCacheDirName)
	}
	return filepath.Join(os.TempDir(), ToolCacheDirName)
}

// CacheArch returns the architecture directory name used by the tool cache.
// It follows the naming of the Node.js runtime the runner cache was designed for.
func CacheArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "386":
		return "ia32"
	default:
		return goarch
	}
}

// HostArch returns CacheArch for the running process.
func HostArch() string {
	return CacheArch(runtime.GOARCH)
}
