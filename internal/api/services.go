package api

import "github.com/readwell/readwell-server/internal/service"

// Services groups the business logic services used by the API server.
type Services struct {
	Article   *service.ArticleService
	Highlight *service.HighlightService
	Note      *service.NoteService
	Render    *service.RenderService
}
