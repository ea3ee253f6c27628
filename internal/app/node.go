package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/actions"   //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/adapters/detector"  //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/adapters/gobuild"   //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/adapters/gomod"     //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/adapters/remote"    //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/adapters/toolcache" //nolint:depguard // Wired in app layer
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components holds everything the entry point needs.
type Components struct {
	App      *App
	Logger   ports.Logger
	Settings *domain.Settings
	Tracer   ports.Tracer
}

// LogConfigurator is implemented by loggers whose output format can change at runtime.
type LogConfigurator interface {
	SetFormat(format domain.LogFormat) error
	SetForceANSI(force bool)
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			gomod.NodeID,
			toolcache.NodeID,
			remote.NodeID,
			gobuild.NodeID,
			actions.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			config.SettingsNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			config.SettingsNodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	resolver, err := graft.Dep[ports.VersionResolver](ctx)
	if err != nil {
		return nil, err
	}

	cache, err := graft.Dep[ports.ToolCache](ctx)
	if err != nil {
		return nil, err
	}

	remoteCache, err := graft.Dep[ports.RemoteCache](ctx)
	if err != nil {
		return nil, err
	}

	builder, err := graft.Dep[ports.Builder](ctx)
	if err != nil {
		return nil, err
	}

	publisher, err := graft.Dep[ports.Publisher](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	settings, err := graft.Dep[*domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	return New(resolver, cache, remoteCache, builder, publisher, log, tracer).
		WithKeepWorkspace(settings.KeepWorkspace), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	a, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	settings, err := graft.Dep[*domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	if err := ConfigureLogger(log, settings.LogFormat); err != nil {
		return nil, err
	}

	return &Components{
		App:      a,
		Logger:   log,
		Settings: settings,
		Tracer:   tracer,
	}, nil
}

// ConfigureLogger applies the configured format to log, falling back to the
// format detected from the environment for "auto".
func ConfigureLogger(log ports.Logger, configured domain.LogFormat) error {
	lc, ok := log.(LogConfigurator)
	if !ok {
		return nil
	}
	lc.SetForceANSI(detector.ForceANSI())
	return lc.SetFormat(detector.ResolveLogFormat(detector.DetectLogFormat(), configured))
}
