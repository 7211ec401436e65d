package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/readwell/readwell-server/internal/service"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/api/v1/articles/{id}/notes",
		Summary:     "List notes",
		Description: "Returns every note on an article, attached to a highlight or not",
		Tags:        []string{"Notes"},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createNote",
		Method:        http.MethodPost,
		Path:          "/api/v1/articles/{id}/notes",
		Summary:       "Create note",
		Description:   "Adds a note to an article, optionally attached to one of its highlights",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPatch,
		Path:        "/api/v1/notes/{id}",
		Summary:     "Update note",
		Description: "Changes a note's content or position",
		Tags:        []string{"Notes"},
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteNote",
		Method:        http.MethodDelete,
		Path:          "/api/v1/notes/{id}",
		Summary:       "Delete note",
		Description:   "Deletes a note",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteNote)
}

// === DTOs ===

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	HighlightID *string          `json:"highlight_id,omitempty" doc:"Highlight to attach the note to"`
	Content     string           `json:"content" minLength:"1" doc:"Note text"`
	Position    *PositionPayload `json:"position,omitempty" doc:"Placement hint for standalone notes"`
}

// CreateNoteInput wraps the create note request for Huma.
type CreateNoteInput struct {
	ID   string `path:"id" doc:"Article ID"`
	Body CreateNoteRequest
}

// NoteOutput wraps the note response for Huma.
type NoteOutput struct {
	Body NoteResponse
}

// ListNotesResponse contains an article's notes.
type ListNotesResponse struct {
	Notes []NoteResponse `json:"notes" doc:"Notes by creation time"`
}

// ListNotesOutput wraps the list notes response for Huma.
type ListNotesOutput struct {
	Body ListNotesResponse
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content  *string          `json:"content,omitempty" minLength:"1" doc:"Note text"`
	Position *PositionPayload `json:"position,omitempty" doc:"Placement hint"`
}

// UpdateNoteInput wraps the update note request for Huma.
type UpdateNoteInput struct {
	ID   string `path:"id" doc:"Note ID"`
	Body UpdateNoteRequest
}

// NoteIDInput identifies a note.
type NoteIDInput struct {
	ID string `path:"id" doc:"Note ID"`
}

// === Handlers ===

func (s *Server) handleListNotes(ctx context.Context, input *ArticleIDInput) (*ListNotesOutput, error) {
	notes, err := s.services.Note.ListNotesByArticle(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	resp := make([]NoteResponse, len(notes))
	for i, n := range notes {
		resp[i] = toNoteResponse(n)
	}
	return &ListNotesOutput{Body: ListNotesResponse{Notes: resp}}, nil
}

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	n, err := s.services.Note.CreateNote(ctx, input.ID, service.CreateNoteRequest{
		HighlightID: input.Body.HighlightID,
		Content:     input.Body.Content,
		Position:    toPosition(input.Body.Position),
	})
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: toNoteResponse(n)}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*NoteOutput, error) {
	n, err := s.services.Note.UpdateNote(ctx, input.ID, service.UpdateNoteRequest{
		Content:  input.Body.Content,
		Position: toPosition(input.Body.Position),
	})
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: toNoteResponse(n)}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *NoteIDInput) (*struct{}, error) {
	if err := s.services.Note.DeleteNote(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

