package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/slms/internal/errs"
	"github.com/erazemk/slms/internal/model"
	"github.com/erazemk/slms/internal/store"
)

// JournalHandler serves the activity journal.
type JournalHandler struct {
	Journal *store.Journal
}

// List handles GET /api/journal.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.EventFilter{
		Actor:  q.Get("actor"),
		ItemID: q.Get("item_id"),
	}

	if v := q.Get("kind"); v != "" {
		if !model.ValidEventKind(v) {
			jsonError(w, http.StatusBadRequest, errs.KindValidation, "invalid kind")
			return
		}
		filter.Kind = model.EventKind(v)
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			jsonError(w, http.StatusBadRequest, errs.KindValidation, "invalid limit")
			return
		}
		filter.Limit = uint(n)
	}

	events, err := h.Journal.ListEvents(r.Context(), filter)
	if err != nil {
		slog.Error("listing journal", "error", err)
		jsonError(w, http.StatusInternalServerError, errs.KindInternalConsistency, "failed to list journal")
		return
	}

	jsonResponse(w, http.StatusOK, events)
}
