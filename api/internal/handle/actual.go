package handle

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/store"
)

type ActualRequest struct {
	RecordID      string  `json:"record_id"`
	ActualWeightT float64 `json:"actual_weight_t"`
}

// Actual records a ground-truth weight against a stored estimation.
func (h *Handle) Actual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if h.records == nil {
		writeError(w, http.StatusServiceUnavailable, "no record store configured")
		return
	}
	var req ActualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	if req.RecordID == "" {
		writeError(w, http.StatusBadRequest, "record_id required")
		return
	}
	if req.ActualWeightT <= 0 {
		writeError(w, http.StatusBadRequest, "actual_weight_t must be positive")
		return
	}

	err := h.records.SetActualWeight(r.Context(), req.RecordID, req.ActualWeightT)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "record not found")
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
