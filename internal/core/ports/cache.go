package ports

import (
	"context"

	"go.trai.ch/toolcache/internal/core/domain"
)

// ToolCache is the persistent cache of built tools, keyed by tool and version.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type ToolCache interface {
	// Find returns the published entry for key.
	// Returns nil, nil if the key is not cached.
	Find(ctx context.Context, key domain.CacheKey) (*domain.CacheEntry, error)

	// Store commits sourceFile as the artifact for key and returns the
	// published entry. If the key is already published the existing entry is
	// returned and sourceFile is ignored.
	Store(ctx context.Context, module string, key domain.CacheKey, sourceFile string) (*domain.CacheEntry, error)

	// List returns every published entry for the host architecture.
	List(ctx context.Context) ([]domain.CacheEntry, error)

	// Remove deletes all entries for tool, or every entry when tool is empty.
	// It returns the number of removed entries.
	Remove(ctx context.Context, tool string) (int, error)
}

// RemoteCache is an optional second cache tier shared between hosts.
type RemoteCache interface {
	// Enabled reports whether a remote tier is configured. When it is not,
	// Fetch and Push are never called.
	Enabled() bool

	// Fetch downloads the artifact for key into destFile.
	// Returns false, nil if the remote has no such artifact.
	Fetch(ctx context.Context, key domain.CacheKey, destFile string) (bool, error)

	// Push uploads sourceFile as the artifact for key.
	Push(ctx context.Context, key domain.CacheKey, sourceFile string) error
}
