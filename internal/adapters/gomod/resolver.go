// Package gomod resolves module versions through the go command.
package gomod

import (
	"context"
	"strings"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// Resolver implements ports.VersionResolver with `go list -m`.
type Resolver struct {
	runner   ports.CommandRunner
	goBinary string
}

// NewResolver creates a Resolver that invokes goBinary through runner.
func NewResolver(runner ports.CommandRunner, goBinary string) *Resolver {
	if goBinary == "" {
		goBinary = domain.DefaultGoBinary
	}
	return &Resolver{
		runner:   runner,
		goBinary: goBinary,
	}
}

// Resolve returns version unchanged unless it is "latest". For "latest" it
// queries the newest version of the repository root of modulePath.
func (r *Resolver) Resolve(ctx context.Context, modulePath, version string) (string, error) {
	if !domain.IsLatest(version) {
		return version, nil
	}

	root := domain.ModuleRoot(modulePath)
	out, err := r.runner.Run(ctx, ports.Command{
		Name: r.goBinary,
		Args: ListArgs(root),
	})
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrVersionResolutionFailed.Error()), "module", modulePath)
	}

	resolved := strings.TrimSpace(string(out))
	if resolved == "" {
		return "", zerr.With(domain.ErrVersionResolutionFailed, "module", modulePath)
	}
	return resolved, nil
}

// ListArgs returns the arguments that print the latest version of root.
func ListArgs(root string) []string {
	return []string{"list", "-u", "-m", "-f", "{{.Version}}", root + "@" + domain.LatestVersion}
}
