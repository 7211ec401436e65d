package providers

import (
	"github.com/samber/do/v2"

	"github.com/readwell/readwell-server/internal/config"
	"github.com/readwell/readwell-server/internal/logger"
	"github.com/readwell/readwell-server/internal/metrics"
	"github.com/readwell/readwell-server/internal/service"
)

// ProvideArticleService provides the article service.
func ProvideArticleService(i do.Injector) (*service.ArticleService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	cacheHandle := do.MustInvoke[*RenderCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewArticleService(storeHandle.Store, sseHandle.Manager, cacheHandle.Cache, log.Logger), nil
}

// ProvideHighlightService provides the highlight service.
func ProvideHighlightService(i do.Injector) (*service.HighlightService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	cacheHandle := do.MustInvoke[*RenderCacheHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewHighlightService(
		storeHandle.Store,
		sseHandle.Manager,
		cacheHandle.Cache,
		m,
		cfg.Anchoring.ContextLength,
		log.Logger,
	), nil
}

// ProvideNoteService provides the note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	cacheHandle := do.MustInvoke[*RenderCacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(storeHandle.Store, sseHandle.Manager, cacheHandle.Cache, log.Logger), nil
}

// ProvideRenderService provides the render service.
func ProvideRenderService(i do.Injector) (*service.RenderService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	highlights := do.MustInvoke[*service.HighlightService](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	cacheHandle := do.MustInvoke[*RenderCacheHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRenderService(
		storeHandle.Store,
		highlights,
		cacheHandle.Cache,
		sseHandle.Manager,
		m,
		service.RenderOptions{
			ContextLength: cfg.Anchoring.ContextLength,
			ReconcileTTL:  cfg.Anchoring.ReconcileTTL,
			SelfHeal:      cfg.Anchoring.SelfHeal,
		},
		log.Component("render"),
	), nil
}
