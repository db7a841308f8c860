package fleet_api

import (
	"net/http"
	"strconv"

	"github.com/BearBump/FleetWatch/internal/services/history"
	"github.com/pkg/errors"
)

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	if h.d.History == nil {
		writeError(w, http.StatusServiceUnavailable, "history unavailable for the enabled sources")
		return
	}

	hours := 0
	if v := r.URL.Query().Get("hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "hours must be an integer")
			return
		}
		hours = n
	}

	res, err := h.d.History.Lookup(r.Context(), hours)
	if errors.Is(err, history.ErrBadWindow) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
