package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/slms/internal/directory"
)

// CatalogHandler handles catalog endpoints.
type CatalogHandler struct {
	Dir *directory.Directory
}

type createItemRequest struct {
	ItemID  string  `json:"item_id" validate:"required"`
	Title   string  `json:"title" validate:"required"`
	Author  string  `json:"author" validate:"required"`
	ISBN    string  `json:"isbn" validate:"required"`
	Copies  int     `json:"copies" validate:"gte=0"`
	ForSale bool    `json:"for_sale"`
	Price   float64 `json:"price" validate:"gte=0"`
}

// List handles GET /api/catalog.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Dir.Ledger().Items())
}

// ForSale handles GET /api/catalog/for-sale.
func (h *CatalogHandler) ForSale(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Dir.Ledger().ItemsForSale())
}

// Create handles POST /api/catalog.
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	claims := GetClaims(r.Context())
	item, err := h.Dir.AddItem(r.Context(), claims.Subject, directory.NewItem{
		ID:      req.ItemID,
		Title:   req.Title,
		Author:  req.Author,
		ISBN:    req.ISBN,
		Copies:  req.Copies,
		ForSale: req.ForSale,
		Price:   req.Price,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	slog.Info("item added", "admin", claims.Subject, "item", item.ID, "copies", item.TotalCopies)
	jsonResponse(w, http.StatusCreated, item)
}
