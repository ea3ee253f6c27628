package domain

import (
	"net/url"
	"strings"

	"go.trai.ch/zerr"
)

// LatestVersion is the symbolic version token resolved against the module proxy.
const LatestVersion = "latest"

// moduleRootSegments is the number of leading path segments naming a
// repository: host, owner and repository.
const moduleRootSegments = 3

// IsLatest reports whether version is the symbolic "latest" token.
func IsLatest(version string) bool {
	return version == LatestVersion
}

// ModuleRoot reduces a package path to host/owner/repository, the unit the
// module proxy reports versions for.
func ModuleRoot(modulePath string) string {
	parts := strings.Split(modulePath, "/")
	if len(parts) > moduleRootSegments {
		parts = parts[:moduleRootSegments]
	}
	return strings.Join(parts, "/")
}

// VersionSegment encodes version as a single path element. Separators are
// percent-escaped, so "feature/x" becomes "feature%2Fx". Versions that can
// never name a directory are rejected.
func VersionSegment(version string) (string, error) {
	if !UsableVersion(version) {
		return "", zerr.With(ErrInvalidVersion, "version", version)
	}
	return url.PathEscape(version), nil
}

// UsableVersion reports whether version can be encoded as a path element.
func UsableVersion(version string) bool {
	return version != "" && version != "." && version != ".."
}
