package gomod

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/config"
	"go.trai.ch/toolcache/internal/adapters/shell"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
)

// NodeID is the unique identifier for the version resolver Graft node.
const NodeID graft.ID = "adapter.version_resolver"

func init() {
	graft.Register(graft.Node[ports.VersionResolver]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.VersionResolver, error) {
			runner, err := graft.Dep[ports.CommandRunner](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(runner, settings.GoBinary), nil
		},
	})
}
