package handle

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/estimate"
	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/vision"
)

type EstimateRequest struct {
	ImageB64   string `json:"image_b64"` // raw base64 or data URL
	MIME       string `json:"mime,omitempty"`
	TruckClass string `json:"truck_class,omitempty"`
	Material   string `json:"material,omitempty"`
	Ensemble   int    `json:"ensemble,omitempty"`
	Runs       int    `json:"runs,omitempty"`
}

// Estimate runs a full voted estimation over one image and returns the
// merged record.
func (h *Handle) Estimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}

	img, dataMIME, err := vision.DecodeBase64MaybeDataURL(req.ImageB64)
	if err != nil || len(img) == 0 {
		writeError(w, http.StatusBadRequest, "bad image_b64")
		return
	}
	mime := vision.PickMIME(req.MIME, dataMIME, img)

	if req.TruckClass != "" {
		if _, ok := h.tables.Truck(req.TruckClass); !ok {
			writeError(w, http.StatusBadRequest, "unknown truck_class "+strconv.Quote(req.TruckClass))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestDeadline(r))
	defer cancel()

	runs := req.Runs
	if runs <= 0 {
		runs = 1
	}

	pipe := &estimate.Pipeline{Engine: h.engine, Tables: h.tables}
	rec, err := pipe.RunVoted(ctx, base64.StdEncoding.EncodeToString(img), mime, runs, estimate.Options{
		TruckClass: req.TruckClass,
		Material:   req.Material,
		Ensemble:   req.Ensemble,
	})
	if err != nil {
		switch {
		case errors.Is(err, estimate.ErrUnknownReferenceKey):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			writeError(w, http.StatusGatewayTimeout, err.Error())
		default:
			writeError(w, http.StatusBadGateway, "estimate error: "+err.Error())
		}
		return
	}

	if h.records != nil {
		sum := sha256.Sum256(img)
		if err := h.records.Insert(r.Context(), 0, hex.EncodeToString(sum[:]), *rec); err != nil {
			log.Printf("handle: insert record %s: %v", rec.ID, err)
		}
	}

	writeJSON(w, http.StatusOK, rec)
}

// requestDeadline honors X-Request-Timeout (seconds) or ?timeoutSec=,
// defaulting to three minutes.
func requestDeadline(r *http.Request) time.Duration {
	deadline := 180 * time.Second
	if ts := r.Header.Get("X-Request-Timeout"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	} else if ts := r.URL.Query().Get("timeoutSec"); ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = time.Duration(v) * time.Second
		}
	}
	return deadline
}
