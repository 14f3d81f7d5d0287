package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/slms/internal/directory"
	"github.com/erazemk/slms/internal/schedule"
)

// PurchasesHandler handles sales and pickup scheduling endpoints.
type PurchasesHandler struct {
	Dir *directory.Directory
}

type purchaseRequest struct {
	ItemID        string `json:"item_id" validate:"required"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=card cash"`
	Faculty       string `json:"faculty" validate:"required"`
	ScheduledTime string `json:"scheduled_time" validate:"required_if=PaymentMethod cash"`
}

// Create handles POST /api/purchases.
func (h *PurchasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	sale, err := h.Dir.Purchase(r.Context(), directory.PurchaseRequest{
		StudentID:     claims.Subject,
		ItemID:        req.ItemID,
		PaymentMethod: req.PaymentMethod,
		Faculty:       req.Faculty,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("purchase completed", "student", sale.StudentID, "item", sale.ItemID, "sale", sale.ID, "method", sale.PaymentMethod)
	jsonResponse(w, http.StatusCreated, sale)
}

// Sales handles GET /api/sales.
func (h *PurchasesHandler) Sales(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Dir.Ledger().Sales())
}

// Slots handles GET /api/schedule/slots.
func (h *PurchasesHandler) Slots(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string][]string{"slots": schedule.AvailableSlots()})
}
