package store

import (
	"fmt"
	"net/http"
)

// Error is a persistence failure carrying the HTTP status it maps to.
// Errors compare equal under errors.Is when their codes match, so every
// refinement of a sentinel below still satisfies errors.Is(err, ErrNotFound).
type Error struct {
	Err     error
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Code == t.Code
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a copy with a different message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Code: e.Code, Message: msg, Err: e.Err}
}

// WithCause returns a copy wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Generic sentinels.
var (
	ErrNotFound      = &Error{Code: http.StatusNotFound, Message: "resource not found"}
	ErrAlreadyExists = &Error{Code: http.StatusConflict, Message: "resource already exists"}
	ErrInvalidInput  = &Error{Code: http.StatusBadRequest, Message: "invalid input"}
)

// Readwell sentinels. Each refines one of the generic sentinels above.
var (
	// ErrArticleNotFound is returned when a highlight or note names a missing article.
	ErrArticleNotFound = ErrNotFound.WithMessage("article not found")
	// ErrHighlightNotFound is returned when a note is attached to a missing highlight.
	ErrHighlightNotFound = ErrNotFound.WithMessage("highlight not found")
	// ErrDuplicateURL is returned when an article URL is already saved.
	ErrDuplicateURL = ErrAlreadyExists.WithMessage("article url already saved")
)

// InvalidOffsets reports a stored range that is empty or starts before the text.
func InvalidOffsets(start, end int) *Error {
	return ErrInvalidInput.WithMessage(fmt.Sprintf("invalid offsets [%d, %d)", start, end))
}
