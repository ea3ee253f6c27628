package ports

import "go.trai.ch/toolcache/internal/core/domain"

// ConfigLoader defines the interface for loading runtime settings.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads toolcache.yaml found at or above cwd, applies environment
	// overrides and returns the resulting settings. A missing file yields
	// the defaults.
	Load(cwd string) (*domain.Settings, error)
}
