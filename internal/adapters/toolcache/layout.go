package toolcache

import (
	"path/filepath"
	"strings"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/mod/semver"
)

// CacheVersion returns the directory name used for version. Canonical semver
// versions lose their leading "v", matching the runner tool cache, so
// "v1.2.3" and a cache populated by other actions with "1.2.3" agree. Other
// versions, such as branch names, are escaped into a single path element.
func CacheVersion(version string) (string, error) {
	if semver.IsValid(version) && semver.Canonical(version) == version {
		return strings.TrimPrefix(version, "v"), nil
	}
	return domain.VersionSegment(version)
}

// paths locates the files of one cache entry.
type paths struct {
	versionDir string
	entryDir   string
	marker     string
	binary     string
}

func (s *Store) pathsFor(key domain.CacheKey) (paths, error) {
	if !domain.ValidToolName(key.Tool) {
		return paths{}, zerr.With(domain.ErrInvalidToolName, "tool", key.Tool)
	}
	cv, err := CacheVersion(key.Version)
	if err != nil {
		return paths{}, err
	}

	versionDir := filepath.Join(s.root, key.Tool, cv)
	entryDir := filepath.Join(versionDir, s.arch)
	return paths{
		versionDir: versionDir,
		entryDir:   entryDir,
		marker:     entryDir + domain.CompleteMarkerSuffix,
		binary:     filepath.Join(entryDir, domain.BinaryName(key.Tool, s.goos)),
	}, nil
}
