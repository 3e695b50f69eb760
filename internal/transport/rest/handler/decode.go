package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"pilotscope/internal/apperr"
)

// decodeJSON reads one JSON value from the request body. An empty body is accepted when
// optional is set.
func decodeJSON(r *http.Request, v interface{}, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperr.Validation("request body exceeds %d bytes", tooLarge.Limit)
	}
	return apperr.Validation("invalid request body")
}
