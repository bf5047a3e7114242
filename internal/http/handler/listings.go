package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"chamba/internal/auth"
	"chamba/internal/listing"

	"github.com/go-chi/chi/v5"
)

type ListingHandler struct {
	Svc *listing.Service
}

type createListingReq struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Category     string  `json:"category"`
	EstimatedPay *string `json:"estimated_pay"`
	Location     *string `json:"location"`
	ContactNote  *string `json:"contact_note"`

	// ContactPhone is only honored (and required) on admin creations.
	ContactPhone string `json:"contact_phone"`
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())

	var req createListingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	in := listing.CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		EstimatedPay: req.EstimatedPay,
		Location:     req.Location,
		ContactNote:  req.ContactNote,
	}

	if ident.Role == auth.RoleAdmin {
		l, err := h.Svc.CreateByAdmin(r.Context(), ident.UserID, in, req.ContactPhone)
		if err != nil {
			writeListingError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":         l.ID,
			"status":     l.Status,
			"expires_at": l.ExpiresAt,
		})
		return
	}

	id, err := h.Svc.Create(r.Context(), ident.UserID, in)
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     id,
		"status": listing.StatusDraftUnpaid,
	})
}

func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := listing.PageInput{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("q")),
	}
	if v, err := strconv.Atoi(q.Get("page")); err == nil {
		in.Page = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		in.Limit = v
	}

	page, err := h.Svc.PublicList(r.Context(), in)
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *ListingHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())

	rows, err := h.Svc.OwnerList(r.Context(), ident.UserID)
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type updateListingReq struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	EstimatedPay *string `json:"estimated_pay"`
	Location     *string `json:"location"`
	ContactNote  *string `json:"contact_note"`
	Status       *string `json:"status"`
}

func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())

	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateListingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	p := listing.Patch{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		EstimatedPay: req.EstimatedPay,
		Location:     req.Location,
		ContactNote:  req.ContactNote,
	}
	if req.Status != nil {
		st := listing.Status(strings.TrimSpace(*req.Status))
		p.Status = &st
	}

	if err := h.Svc.Update(r.Context(), id, ident.UserID, p); err != nil {
		writeListingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ident, _ := auth.IdentityFromContext(r.Context())

	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.Svc.Delete(r.Context(), id, ident.UserID); err != nil {
		writeListingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdminDelete removes any listing regardless of owner.
func (h *ListingHandler) AdminDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.Svc.AdminDelete(r.Context(), id); err != nil {
		writeListingError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func urlID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
}
