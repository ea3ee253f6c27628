package remote

import (
	"context"

	"go.trai.ch/toolcache/internal/core/domain"
)

// Disabled is the remote cache used when no bucket is configured.
type Disabled struct{}

// Enabled reports false.
func (Disabled) Enabled() bool {
	return false
}

// Fetch always reports a miss.
func (Disabled) Fetch(_ context.Context, _ domain.CacheKey, _ string) (bool, error) {
	return false, nil
}

// Push does nothing.
func (Disabled) Push(_ context.Context, _ domain.CacheKey, _ string) error {
	return nil
}
