package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// maxBodySize caps JSON request bodies. Authentication payloads are small;
// anything larger is abuse.
const maxBodySize = 64 * 1024

// decodeJSON decodes a JSON request body into T, writing a 400 response
// and returning ok=false on malformed input.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, maxSize int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return v, false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return v, false
	}
	// Reject trailing garbage after the JSON document.
	if dec.More() {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return v, false
	}
	_, _ = io.Copy(io.Discard, r.Body)
	return v, true
}

// writeInternalError logs the underlying error and writes a generic 500
// response. The error detail never reaches the client.
func writeInternalError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, slog.Any("error", err))
	writeError(w, http.StatusInternalServerError, msg)
}
