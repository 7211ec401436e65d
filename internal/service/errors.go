package service

import (
	"errors"

	domainerrors "github.com/readwell/readwell-server/internal/errors"
	"github.com/readwell/readwell-server/internal/store"
)

// storeError converts persistence errors into coded domain errors.
// entity names the thing being looked up, e.g. "article".
func storeError(err error, entity string) error {
	if err == nil {
		return nil
	}
	var se *store.Error
	if !errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		msg := entity + " not found"
		if se.Message != store.ErrNotFound.Message {
			msg = se.Message
		}
		return domainerrors.NotFound(msg).WithCause(err)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.AlreadyExists(entity + " already exists").WithCause(err)
	case errors.Is(err, store.ErrInvalidInput):
		return domainerrors.Validation(se.Message).WithCause(err)
	default:
		return err
	}
}
