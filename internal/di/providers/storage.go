package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/readwell/readwell-server/internal/cache"
	"github.com/readwell/readwell-server/internal/config"
	"github.com/readwell/readwell-server/internal/logger"
	"github.com/readwell/readwell-server/internal/service"
)

// RenderCacheHandle wraps the badger render cache. Cache is nil when caching is disabled.
type RenderCacheHandle struct {
	db    *cache.RenderCache
	Cache service.RenderCache
}

// Shutdown implements do.Shutdownable.
func (h *RenderCacheHandle) Shutdown() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}

// ProvideRenderCache provides the on-disk render cache.
func ProvideRenderCache(i do.Injector) (*RenderCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Cache.Enabled {
		log.Info("Render cache disabled by configuration")
		return &RenderCacheHandle{}, nil
	}

	db, err := cache.Open(cfg.CachePath(), cfg.Cache.TTL, log.Component("cache"))
	if err != nil {
		return nil, fmt.Errorf("render cache: %w", err)
	}

	log.Info("Render cache opened", "path", cfg.CachePath(), "ttl", cfg.Cache.TTL)

	return &RenderCacheHandle{db: db, Cache: db}, nil
}
