package api

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/readwell/readwell-server/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the response envelope.
// Errors become {"success": false, "error": {...}}; anything else goes under "data".
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case response.Envelope:
		return body, nil
	case *APIError:
		return response.Failure(body.ErrorBody), nil
	default:
		return response.Wrap(v), nil
	}
}
