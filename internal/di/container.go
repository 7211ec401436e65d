// Package di provides dependency injection configuration for the Readwell server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/readwell/readwell-server/internal/config"
	"github.com/readwell/readwell-server/internal/di/providers"
	"github.com/readwell/readwell-server/internal/logger"
	"github.com/readwell/readwell-server/internal/metrics"
	"github.com/readwell/readwell-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideRenderCache)

	// Business services
	do.Provide(injector, providers.ProvideArticleService)
	do.Provide(injector, providers.ProvideHighlightService)
	do.Provide(injector, providers.ProvideNoteService)
	do.Provide(injector, providers.ProvideRenderService)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.RenderCacheHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)

	// Business services
	_ = do.MustInvoke[*service.ArticleService](injector)
	_ = do.MustInvoke[*service.HighlightService](injector)
	_ = do.MustInvoke[*service.NoteService](injector)
	_ = do.MustInvoke[*service.RenderService](injector)

	// Server
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
