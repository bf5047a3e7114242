package handler

import (
	"encoding/json"
	"net/http"

	"chamba/internal/auth"
	"chamba/internal/listing"
)

type RenewalHandler struct {
	Svc *listing.RenewalService
}

type renewalReq struct {
	OperationCode string `json:"operation_code"`
}

// Request registers a renewal claim against /listings/{id}.
func (h *RenewalHandler) Request(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())

	listingID, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req renewalReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	ren, err := h.Svc.Request(r.Context(), listingID, ident.UserID, req.OperationCode)
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"renewal_id":     ren.ID,
		"new_expires_at": ren.NewExpiresAt,
	})
}

func (h *RenewalHandler) Pending(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.Pending(r.Context())
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *RenewalHandler) Verdict(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req verdictReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	if err := h.Svc.Verdict(r.Context(), id, listing.Decision(req.Decision), req.Notes); err != nil {
		writeListingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
