package ports

import "context"

// VersionResolver turns a version specifier into a concrete version.
//
//go:generate mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type VersionResolver interface {
	// Resolve returns version unchanged unless it is the "latest" token, in
	// which case it asks the module proxy for the newest version of the
	// module's repository.
	Resolve(ctx context.Context, modulePath, version string) (string, error)
}
