package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"chamba/internal/listing"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeListingError maps the listing error taxonomy onto HTTP codes.
// InvalidStateError carries the current state so callers can react.
func writeListingError(w http.ResponseWriter, err error) {
	var ve *listing.ValidationError
	var ise *listing.InvalidStateError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Error())
	case errors.As(err, &ise):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":         ise.Error(),
			"current_state": ise.Current,
		})
	case errors.Is(err, listing.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, listing.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	default:
		writeError(w, http.StatusInternalServerError, "server error")
	}
}
