package config

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/logger"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
	"go.trai.ch/zerr"
)

// NodeID is the unique identifier for the config loader Graft node.
const NodeID graft.ID = "adapter.config_loader"

// SettingsNodeID is the unique identifier for the resolved settings Graft node.
const SettingsNodeID graft.ID = "adapter.settings"

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})

	graft.Register(graft.Node[*domain.Settings]{
		ID:        SettingsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{NodeID},
		Run: func(ctx context.Context) (*domain.Settings, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}
			cwd, err := os.Getwd()
			if err != nil {
				return nil, zerr.Wrap(err, "failed to get current working directory")
			}
			return loader.Load(cwd)
		},
	})
}
