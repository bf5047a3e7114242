package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"chamba/internal/auth"
	"chamba/internal/listing"
	"chamba/internal/payconfig"

	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	Svc      *listing.PaymentService
	Settings *payconfig.Store
}

// Config is public: it only exposes the price and where to send the
// money.
func (h *PaymentHandler) Config(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Settings.Channel(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

type submitPaymentReq struct {
	ListingID     uint64 `json:"listing_id"`
	OperationCode string `json:"operation_code"`
}

func (h *PaymentHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())

	var req submitPaymentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	id, err := h.Svc.Submit(r.Context(), req.ListingID, ident.UserID, req.OperationCode)
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"submission_id": id,
		"status":        listing.StatusPendingVerification,
	})
}

func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())

	listingID, err := strconv.ParseUint(chi.URLParam(r, "listingID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	st, err := h.Svc.Status(r.Context(), listingID, ident.UserID)
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *PaymentHandler) Pending(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Svc.Pending(r.Context())
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type verdictReq struct {
	Decision string `json:"decision"` // verify | reject
	Notes    string `json:"notes"`
}

func (h *PaymentHandler) Verdict(w http.ResponseWriter, r *http.Request) {
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
