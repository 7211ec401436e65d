// Package sse implements Server-Sent Events for live highlight and note updates.
package sse

import (
	"time"

	"github.com/readwell/readwell-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	EventHighlightCreated EventType = "highlight.created"
	EventHighlightUpdated EventType = "highlight.updated"
	EventHighlightDeleted EventType = "highlight.deleted"
	// EventHighlightsRepaired is sent when re-anchoring rewrote stored offsets.
	EventHighlightsRepaired EventType = "highlight.repaired"

	EventNoteCreated EventType = "note.created"
	EventNoteUpdated EventType = "note.updated"
	EventNoteDeleted EventType = "note.deleted"

	EventArticleUpdated EventType = "article.updated"
	EventArticleDeleted EventType = "article.deleted"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
// The Data field contains the event payload as a JSON object for direct deserialization.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
	// ArticleID scopes delivery: clients subscribed to one article only
	// receive that article's events. Empty means broadcast.
	ArticleID string `json:"-"`
}

// HighlightEventData is the payload of highlight.created and highlight.updated.
type HighlightEventData struct {
	Highlight *domain.Highlight `json:"highlight"`
}

// DeletedEventData identifies a removed entity.
type DeletedEventData struct {
	ID        string `json:"id"`
	ArticleID string `json:"article_id"`
}

// RepairedEventData lists highlights whose offsets were refreshed.
type RepairedEventData struct {
	ArticleID    string   `json:"article_id"`
	HighlightIDs []string `json:"highlight_ids"`
}

// NoteEventData is the payload of note.created and note.updated.
type NoteEventData struct {
	Note *domain.Note `json:"note"`
}

// ArticleEventData is the payload of article.updated. Content is omitted.
type ArticleEventData struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ContentHash string `json:"content_hash"`
}

func newEvent(t EventType, articleID string, data any) Event {
	return Event{
		Type:      t,
		ArticleID: articleID,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// NewHighlightCreatedEvent creates a highlight.created event.
func NewHighlightCreatedEvent(h *domain.Highlight) Event {
	return newEvent(EventHighlightCreated, h.ArticleID, HighlightEventData{Highlight: h})
}

// NewHighlightUpdatedEvent creates a highlight.updated event.
func NewHighlightUpdatedEvent(h *domain.Highlight) Event {
	return newEvent(EventHighlightUpdated, h.ArticleID, HighlightEventData{Highlight: h})
}

// NewHighlightDeletedEvent creates a highlight.deleted event.
func NewHighlightDeletedEvent(articleID, highlightID string) Event {
	return newEvent(EventHighlightDeleted, articleID, DeletedEventData{ID: highlightID, ArticleID: articleID})
}

// NewHighlightsRepairedEvent creates a highlight.repaired event.
func NewHighlightsRepairedEvent(articleID string, ids []string) Event {
	return newEvent(EventHighlightsRepaired, articleID, RepairedEventData{ArticleID: articleID, HighlightIDs: ids})
}

// NewNoteCreatedEvent creates a note.created event.
func NewNoteCreatedEvent(n *domain.Note) Event {
	return newEvent(EventNoteCreated, n.ArticleID, NoteEventData{Note: n})
}

// NewNoteUpdatedEvent creates a note.updated event.
func NewNoteUpdatedEvent(n *domain.Note) Event {
	return newEvent(EventNoteUpdated, n.ArticleID, NoteEventData{Note: n})
}

// NewNoteDeletedEvent creates a note.deleted event.
func NewNoteDeletedEvent(articleID, noteID string) Event {
	return newEvent(EventNoteDeleted, articleID, DeletedEventData{ID: noteID, ArticleID: articleID})
}

// NewArticleUpdatedEvent creates an article.updated event.
func NewArticleUpdatedEvent(a *domain.Article) Event {
	return newEvent(EventArticleUpdated, a.ID, ArticleEventData{ID: a.ID, Title: a.Title, ContentHash: a.ContentHash})
}

// NewArticleDeletedEvent creates an article.deleted event.
func NewArticleDeletedEvent(articleID string) Event {
	return newEvent(EventArticleDeleted, articleID, DeletedEventData{ID: articleID, ArticleID: articleID})
}

// NewHeartbeatEvent creates a keepalive event.
func NewHeartbeatEvent() Event {
	return newEvent(EventHeartbeat, "", map[string]any{})
}
