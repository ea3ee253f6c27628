package toolcache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/toolcache/internal/adapters/config"
	"go.trai.ch/toolcache/internal/adapters/logger"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/core/ports"
)

// NodeID is the unique identifier for the tool cache Graft node.
const NodeID graft.ID = "adapter.tool_cache"

func init() {
	graft.Register(graft.Node[ports.ToolCache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID, config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.ToolCache, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			settings, err := graft.Dep[*domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(settings.CacheDir, log), nil
		},
	})
}
