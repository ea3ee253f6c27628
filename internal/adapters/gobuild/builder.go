// Package gobuild compiles tools with `go install` into throwaway workspaces.
package gobuild

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// Builder implements ports.Builder.
type Builder struct {
	runner   ports.CommandRunner
	goBinary string
	tempDir  string
	goos     string
}

// Option configures a Builder.
type Option func(*Builder)

// WithTempDir sets the parent directory of build workspaces.
func WithTempDir(dir string) Option {
	return func(b *Builder) {
		b.tempDir = dir
	}
}

// WithGOOS overrides the operating system used to name the produced binary.
func WithGOOS(goos string) Option {
	return func(b *Builder) {
		b.goos = goos
	}
}

// NewBuilder creates a Builder that invokes goBinary through runner.
func NewBuilder(runner ports.CommandRunner, goBinary string, opts ...Option) *Builder {
	if goBinary == "" {
		goBinary = domain.DefaultGoBinary
	}
	b := &Builder{
		runner:   runner,
		goBinary: goBinary,
		goos:     runtime.GOOS,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build installs req.Module at key.Version into a fresh workspace and returns
// the produced binary. The returned cleanup removes the workspace and is
// non-nil whenever the workspace exists.
func (b *Builder) Build(
	ctx context.Context,
	req domain.InstallRequest,
	key domain.CacheKey,
) (binPath string, cleanup func(), err error) {
	workspace, err := os.MkdirTemp(b.tempDir, domain.WorkspacePattern)
	if err != nil {
		return "", nil, zerr.Wrap(err, domain.ErrWorkspaceCreateFailed.Error())
	}
	cleanup = func() {
		_ = os.RemoveAll(workspace)
	}

	target := req.Module + "@" + key.Version
	_, err = b.runner.Run(ctx, ports.Command{
		Name: b.goBinary,
		Args: InstallArgs(req, key.Version),
		Env:  BuildEnv(workspace, req.CGO),
	})
	if err != nil {
		buildErr := zerr.Wrap(err, domain.ErrBuildFailed.Error())
		return "", cleanup, zerr.With(buildErr, "target", target)
	}

	binary := domain.BinaryName(key.Tool, b.goos)
	binPath = filepath.Join(workspace, binary)
	if info, statErr := os.Stat(binPath); statErr != nil || info.IsDir() {
		missingErr := zerr.Wrap(domain.ErrBinaryNotFound, domain.ErrBuildFailed.Error())
		missingErr = zerr.With(missingErr, "binary", binary)
		return "", cleanup, zerr.With(missingErr, "workspace", workspace)
	}

	return binPath, cleanup, nil
}

// InstallArgs returns the `go install` arguments for req at version.
// -ldflags and -tags are always present, even when empty.
func InstallArgs(req domain.InstallRequest, version string) []string {
	flags := req.BuildFlags()
	args := make([]string, 0, len(flags)+4)
	args = append(args, "install")
	args = append(args, flags...)
	return append(args,
		"-ldflags="+req.LDFlags,
		"-tags="+req.Tags,
		req.Module+"@"+version,
	)
}

// BuildEnv returns the environment overrides for one build.
func BuildEnv(workspace string, cgo *bool) []string {
	env := []string{"GOBIN=" + workspace}
	if cgo != nil {
		if *cgo {
			env = append(env, "CGO_ENABLED=1")
		} else {
			env = append(env, "CGO_ENABLED=0")
		}
	}
	return env
}
