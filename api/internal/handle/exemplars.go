package handle

import (
	"net/http"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/estimate"
)

// Exemplars returns the graded exemplar set for a capacity class:
// ?capacity_class=medium. One exemplar per load-ratio grade, the most
// recent labeled record within each.
func (h *Handle) Exemplars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET only")
		return
	}
	if h.records == nil {
		writeError(w, http.StatusServiceUnavailable, "no record store configured")
		return
	}
	class := r.URL.Query().Get("capacity_class")
	if class == "" {
		writeError(w, http.StatusBadRequest, "capacity_class required")
		return
	}

	labeled, err := h.records.ListLabeled(r.Context(), 0)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	exemplars := estimate.SelectExemplars(labeled, class, h.tables)
	if exemplars == nil {
		exemplars = []estimate.GradedExemplar{}
	}
	writeJSON(w, http.StatusOK, exemplars)
}
