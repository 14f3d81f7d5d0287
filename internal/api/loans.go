package api

import (
	"net/http"

	"github.com/erazemk/slms/internal/directory"
	"github.com/erazemk/slms/internal/model"
)

// LoansHandler handles a student's borrow and return endpoints.
type LoansHandler struct {
	Dir *directory.Directory
}

type loanRequest struct {
	ItemID string `json:"item_id" validate:"required"`
}

type loansResponse struct {
	Items    []model.CatalogItem `json:"items"`
	Borrowed int                 `json:"borrowed"`
	Limit    int                 `json:"limit"`
}

// List handles GET /api/loans.
func (h *LoansHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	items, err := h.Dir.Loans(claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}

	jsonResponse(w, http.StatusOK, loansResponse{
		Items:    items,
		Borrowed: len(items),
		Limit:    model.MaxBorrowLimit,
	})
}

// Borrow handles POST /api/loans.
func (h *LoansHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Dir.Borrow(r.Context(), claims.Subject, req.ItemID); err != nil {
		writeError(w, err)
		return
	}

	h.respondItem(w, http.StatusCreated, req.ItemID)
}

// Return handles POST /api/loans/return.
func (h *LoansHandler) Return(w http.ResponseWriter, r *http.Request) {
	var req loanRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	if err := h.Dir.Return(r.Context(), claims.Subject, req.ItemID); err != nil {
		writeError(w, err)
		return
	}

	h.respondItem(w, http.StatusOK, req.ItemID)
}

// respondItem answers with the item's current counts after a transition.
func (h *LoansHandler) respondItem(w http.ResponseWriter, status int, itemID string) {
	item, _ := h.Dir.Ledger().Item(itemID)
	jsonResponse(w, status, item)
}
