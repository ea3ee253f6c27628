package ports

import (
	"context"

	"go.trai.ch/toolcache/internal/core/domain"
)

// Builder compiles a tool into an ephemeral workspace.
//
//go:generate mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	// Build installs req.Module at key.Version into a fresh workspace and
	// returns the path of the produced binary. The cleanup function removes
	// the workspace and is non-nil whenever a workspace was created, even if
	// err is not nil.
	Build(ctx context.Context, req domain.InstallRequest, key domain.CacheKey) (binPath string, cleanup func(), err error)
}
