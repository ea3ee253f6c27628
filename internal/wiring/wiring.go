// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/toolcache/internal/adapters/actions"
	_ "go.trai.ch/toolcache/internal/adapters/config"
	_ "go.trai.ch/toolcache/internal/adapters/gobuild"
	_ "go.trai.ch/toolcache/internal/adapters/gomod"
	_ "go.trai.ch/toolcache/internal/adapters/logger"
	_ "go.trai.ch/toolcache/internal/adapters/remote"
	_ "go.trai.ch/toolcache/internal/adapters/shell"
	_ "go.trai.ch/toolcache/internal/adapters/telemetry"
	_ "go.trai.ch/toolcache/internal/adapters/toolcache"
	// Register app nodes.
	_ "go.trai.ch/toolcache/internal/app"
)
