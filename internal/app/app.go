// Package app orchestrates tool installation: resolve, look up, build, store and publish.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// App is the main application logic.
type App struct {
	resolver  ports.VersionResolver
	cache     ports.ToolCache
	remote    ports.RemoteCache
	builder   ports.Builder
	publisher ports.Publisher
	logger    ports.Logger
	tracer    ports.Tracer

	keepWorkspace bool
	flight        singleflight.Group
}

// New creates a new App instance.
func New(
	resolver ports.VersionResolver,
	cache ports.ToolCache,
	remote ports.RemoteCache,
	builder ports.Builder,
	publisher ports.Publisher,
	logger ports.Logger,
	tracer ports.Tracer,
) *App {
	return &App{
		resolver:  resolver,
		cache:     cache,
		remote:    remote,
		builder:   builder,
		publisher: publisher,
		logger:    logger,
		tracer:    tracer,
	}
}

// WithKeepWorkspace keeps build workspaces on disk after the install finishes.
func (a *App) WithKeepWorkspace(keep bool) *App {
	a.keepWorkspace = keep
	return a
}

// LogControl is implemented by loggers whose verbosity can change at runtime.
type LogControl interface {
	SetVerbose(verbose bool)
}

// SetVerbose enables debug output when the logger supports it.
func (a *App) SetVerbose(verbose bool) {
	if lc, ok := a.logger.(LogControl); ok {
		lc.SetVerbose(verbose)
	}
}

// Warn logs a warning through the application logger.
func (a *App) Warn(msg string) {
	a.logger.Warn(msg)
}

// Install makes sure the requested tool is in the cache and publishes its
// location and resolved version.
func (a *App) Install(ctx context.Context, req domain.InstallRequest) (*domain.InstallResult, error) {
	ctx, span := a.tracer.Start(ctx, "install")
	defer span.End()

	req, err := req.Normalize()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("tool", req.ToolName)
	span.SetAttribute("module", req.Module)

	version, err := a.resolve(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, withRequest(err, req)
	}

	key := domain.CacheKey{Tool: req.ToolName, Version: version}
	span.SetAttribute("version", version)

	v, err, shared := a.flight.Do(key.String(), func() (any, error) {
		return a.ensure(ctx, req, key)
	})
	if err != nil {
		span.RecordError(err)
		return nil, withKey(withRequest(err, req), key)
	}
	if shared {
		a.logger.Debug(fmt.Sprintf("joined in-flight install of %s", key))
	}

	entry, ok := v.(*domain.InstallResult)
	if !ok {
		return nil, zerr.With(zerr.New("unexpected install result type"), "key", key.String())
	}
	result := *entry

	if err := a.publish(ctx, &result); err != nil {
		span.RecordError(err)
		return nil, withKey(err, key)
	}
	span.SetAttribute("source", string(result.Source))

	return &result, nil
}

func (a *App) resolve(ctx context.Context, req domain.InstallRequest) (string, error) {
	ctx, span := a.tracer.Start(ctx, "resolve")
	defer span.End()

	if domain.IsLatest(req.Version) {
		a.logger.Info(fmt.Sprintf("resolving latest version of %s", domain.ModuleRoot(req.Module)))
	}

	version, err := a.resolver.Resolve(ctx, req.Module, req.Version)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if domain.IsLatest(req.Version) {
		a.logger.Info(fmt.Sprintf("latest version of %s is %s", req.Module, version))
	}
	return version, nil
}

// ensure returns a published cache entry for key, consulting the local
// cache, then the remote cache, and building as a last resort.
func (a *App) ensure(ctx context.Context, req domain.InstallRequest, key domain.CacheKey) (*domain.InstallResult, error) {
	if entry := a.lookup(ctx, key); entry != nil {
		a.logger.Info(fmt.Sprintf("found %s in cache", key))
		return resultFor(req, entry, domain.SourceCache), nil
	}

	entry, err := a.fetchRemote(ctx, req, key)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		a.logger.Info(fmt.Sprintf("restored %s from remote cache", key))
		return resultFor(req, entry, domain.SourceRemote), nil
	}

	entry, err = a.build(ctx, req, key)
	if err != nil {
		return nil, err
	}
	return resultFor(req, entry, domain.SourceBuild), nil
}

// lookup treats a failing cache lookup as a miss.
func (a *App) lookup(ctx context.Context, key domain.CacheKey) *domain.CacheEntry {
	ctx, span := a.tracer.Start(ctx, "cache-lookup")
	defer span.End()

	entry, err := a.cache.Find(ctx, key)
	if err != nil {
		span.RecordError(err)
		a.logger.Warn(fmt.Sprintf("cache lookup for %s failed, treating as miss: %v", key, err))
		return nil
	}
	span.SetAttribute("hit", entry != nil)
	return entry
}

func (a *App) fetchRemote(
	ctx context.Context,
	req domain.InstallRequest,
	key domain.CacheKey,
) (*domain.CacheEntry, error) {
	if !a.remote.Enabled() {
		return nil, nil
	}

	ctx, span := a.tracer.Start(ctx, "remote-fetch")
	defer span.End()

	dir, err := os.MkdirTemp("", domain.WorkspacePattern)
	if err != nil {
		span.RecordError(err)
		a.logger.Warn(fmt.Sprintf("skipping remote cache for %s: %v", key, err))
		return nil, nil
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	dest := filepath.Join(dir, domain.BinaryName(key.Tool, runtime.GOOS))
	found, err := a.remote.Fetch(ctx, key, dest)
	if err != nil {
		span.RecordError(err)
		a.logger.Warn(fmt.Sprintf("remote cache fetch for %s failed: %v", key, err))
		return nil, nil
	}
	span.SetAttribute("hit", found)
	if !found {
		return nil, nil
	}

	return a.store(ctx, req, key, dest)
}

func (a *App) build(ctx context.Context, req domain.InstallRequest, key domain.CacheKey) (*domain.CacheEntry, error) {
	buildCtx, span := a.tracer.Start(ctx, "build")
	a.logger.Info(fmt.Sprintf("building %s@%s", req.Module, key.Version))

	binPath, cleanup, err := a.builder.Build(buildCtx, req, key)
	if cleanup != nil {
		defer a.cleanupWorkspace(cleanup, binPath)
	}
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, err
	}
	span.End()

	entry, err := a.store(ctx, req, key, binPath)
	if err != nil {
		return nil, err
	}

	a.push(ctx, key, binPath)
	return entry, nil
}

func (a *App) cleanupWorkspace(cleanup func(), binPath string) {
	if a.keepWorkspace {
		if binPath != "" {
			a.logger.Info(fmt.Sprintf("keeping build workspace %s", filepath.Dir(binPath)))
		}
		return
	}
	cleanup()
}

func (a *App) store(
	ctx context.Context,
	req domain.InstallRequest,
	key domain.CacheKey,
	file string,
) (*domain.CacheEntry, error) {
	ctx, span := a.tracer.Start(ctx, "cache-store")
	defer span.End()

	entry, err := a.cache.Store(ctx, req.Module, key, file)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	a.logger.Info(fmt.Sprintf("cached %s in %s", key, entry.Dir))
	return entry, nil
}

// push uploads a freshly built binary. Failures never fail the install.
func (a *App) push(ctx context.Context, key domain.CacheKey, file string) {
	if !a.remote.Enabled() {
		return
	}

	ctx, span := a.tracer.Start(ctx, "remote-push")
	defer span.End()

	if err := a.remote.Push(ctx, key, file); err != nil {
		span.RecordError(err)
		a.logger.Warn(fmt.Sprintf("remote cache push for %s failed: %v", key, err))
	}
}

func (a *App) publish(ctx context.Context, result *domain.InstallResult) error {
	_, span := a.tracer.Start(ctx, "publish")
	defer span.End()

	// The search path is written last: it is the output later steps act on.
	if err := a.publisher.SetOutput("version", result.Key.Version); err != nil {
		span.RecordError(err)
		return zerr.Wrap(err, domain.ErrPublishFailed.Error())
	}
	if err := a.publisher.AddPath(result.Dir); err != nil {
		span.RecordError(err)
		return zerr.Wrap(err, domain.ErrPublishFailed.Error())
	}
	a.logger.Info(fmt.Sprintf("added %s to the search path", result.Dir))
	return nil
}

// ListCache returns every cached entry for the host architecture.
func (a *App) ListCache(ctx context.Context) ([]domain.CacheEntry, error) {
	return a.cache.List(ctx)
}

// Clean removes cached entries for tool, or the whole cache when tool is empty.
func (a *App) Clean(ctx context.Context, tool string) (int, error) {
	if tool != "" && !domain.ValidToolName(tool) {
		return 0, zerr.With(domain.ErrInvalidToolName, "tool", tool)
	}

	removed, err := a.cache.Remove(ctx, tool)
	if err != nil {
		return removed, err
	}

	switch {
	case tool == "":
		a.logger.Info(fmt.Sprintf("removed %d cache entries", removed))
	default:
		a.logger.Info(fmt.Sprintf("removed %d cache entries for %s", removed, tool))
	}
	return removed, nil
}

func resultFor(req domain.InstallRequest, entry *domain.CacheEntry, source domain.Source) *domain.InstallResult {
	return &domain.InstallResult{
		Key:    entry.Key,
		Module: req.Module,
		Dir:    entry.Dir,
		Source: source,
	}
}

func withRequest(err error, req domain.InstallRequest) error {
	err = zerr.With(err, "module", req.Module)
	return zerr.With(err, "version", req.Version)
}

func withKey(err error, key domain.CacheKey) error {
	return zerr.With(err, "tool", key.Tool)
}
