// Package domain contains the core types of the tool installer.
package domain

import "time"

// CacheKey identifies one cached artifact. Two requests with the same key
// refer to the same binary.
type CacheKey struct {
	Tool    string
	Version string
}

// String returns the key as tool@version.
func (k CacheKey) String() string {
	return k.Tool + "@" + k.Version
}

// CacheEntry describes a published artifact in the tool cache.
type CacheEntry struct {
	Key     CacheKey
	Module  string
	Arch    string
	Dir     string
	Size    int64
	Digest  string
	Created time.Time
}

// Source describes where an install result came from.
type Source string

const (
	// SourceCache means the key was already present in the local tool cache.
	SourceCache Source = "cache"
	// SourceRemote means the artifact was fetched from the remote cache.
	SourceRemote Source = "remote"
	// SourceBuild means the artifact was built during this invocation.
	SourceBuild Source = "build"
)

// InstallResult is what an invocation publishes on success.
type InstallResult struct {
	Key    CacheKey
	Module string
	// Dir is the cache directory holding the binary; it is added to the search path.
	Dir    string
	Source Source
}
