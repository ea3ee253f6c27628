package toolcache

import (
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Marker is the content of an entry's completion marker. Its presence
// publishes the entry; the fields are informational.
type Marker struct {
	Tool    string    `yaml:"tool"`
	Version string    `yaml:"version"`
	Module  string    `yaml:"module"`
	Arch    string    `yaml:"arch"`
	Size    int64     `yaml:"size"`
	Digest  string    `yaml:"digest"`
	Created time.Time `yaml:"created"`
}

// readMarker decodes the marker at path. Empty markers, as written by other
// tool cache clients, decode to the zero Marker.
func readMarker(path string) (Marker, error) {
	var m Marker

	//nolint:gosec // path is built from the cache root and a validated key
	data, err := os.ReadFile(path)
	if err != nil {
		return m, err
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, zerr.With(zerr.Wrap(err, domain.ErrCacheMarkerInvalid.Error()), "path", path)
	}
	return m, nil
}

// writeMarker writes m to path atomically.
func writeMarker(path string, m *Marker) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return zerr.Wrap(err, "failed to encode cache marker")
	}

	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".marker-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create temp marker file")
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return zerr.Wrap(err, "failed to write temp marker file")
	}
	if err := tmpFile.Close(); err != nil {
		return zerr.Wrap(err, "failed to close temp marker file")
	}
	if err := os.Chmod(tmpPath, domain.FilePerm); err != nil {
		return zerr.Wrap(err, "failed to set marker permissions")
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return zerr.Wrap(err, "failed to publish cache marker")
	}
	return nil
}
