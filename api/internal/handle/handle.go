// Package handle exposes the estimation core over HTTP.
package handle

import (
	"encoding/json"
	"net/http"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/masterdata"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/store"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

type Handle struct {
	engine  vision.Engine
	tables  *masterdata.Tables
	records *store.RecordRepo // nil disables persistence and history routes
}

func New(engine vision.Engine, tables *masterdata.Tables, records *store.RecordRepo) *Handle {
	return &Handle{
		engine:  engine,
		tables:  tables,
		records: records,
	}
}

// Register wires all routes onto mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("/estimate", h.Estimate)
	mux.HandleFunc("/actual", h.Actual)
	mux.HandleFunc("/exemplars", h.Exemplars)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
