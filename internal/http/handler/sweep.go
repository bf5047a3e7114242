package handler

import (
	"net/http"

	"chamba/internal/listing"
)

type SweepHandler struct {
	Sweeper *listing.Sweeper
}

// Run triggers the expiration sweep on demand. The worker runs the
// same sweep on its schedule; an extra run is harmless.
func (h *SweepHandler) Run(w http.ResponseWriter, r *http.Request) {
	count, err := h.Sweeper.Run(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sweep failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}
