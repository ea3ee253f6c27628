package gobuild

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/config"
	"go.trai.ch/toolcache/internal/adapters/shell"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
)

// NodeID is the unique identifier for the builder Graft node.
const NodeID graft.ID = "adapter.builder"

func init() {
	graft.Register(graft.Node[ports.Builder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{shell.NodeID, config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.Builder, error) {
			runner, err := graft.Dep[ports.CommandRunner](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewBuilder(runner, settings.GoBinary), nil
		},
	})
}
