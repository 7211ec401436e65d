package store

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesWrappedSentinel(t *testing.T) {
	cause := errors.New("constraint failed")
	err := fmt.Errorf("create highlight: %w", ErrAlreadyExists.WithCause(cause))

	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestError_WithMessage(t *testing.T) {
	err := ErrNotFound.WithMessage("article not found")

	assert.Equal(t, http.StatusNotFound, err.HTTPCode())
	assert.Equal(t, "article not found", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidInput)

	var storeErr *Error
	assert.ErrorAs(t, fmt.Errorf("wrap: %w", err), &storeErr)
	assert.Equal(t, http.StatusNotFound, storeErr.Code)
}

func TestError_ReadwellSentinelsRefineGeneric(t *testing.T) {
	cause := errors.New("FOREIGN KEY constraint failed")
	err := ErrArticleNotFound.WithCause(cause)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "article not found", err.Message)
	assert.ErrorIs(t, ErrHighlightNotFound, ErrNotFound)
	assert.ErrorIs(t, ErrDuplicateURL, ErrAlreadyExists)
}

func TestInvalidOffsets(t *testing.T) {
	err := InvalidOffsets(7, 4)

	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, http.StatusBadRequest, err.HTTPCode())
	assert.Equal(t, "invalid offsets [7, 4)", err.Error())
}
