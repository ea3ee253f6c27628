package remote

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/config"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
)

// NodeID is the unique identifier for the remote cache Graft node.
const NodeID graft.ID = "adapter.remote_cache"

func init() {
	graft.Register(graft.Node[ports.RemoteCache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.RemoteCache, error) {
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return New(ctx, settings.Remote)
		},
	})
}
