// Package httpserver hosts the estimation HTTP API.
package httpserver

import (
	"log"
	"net/http"

	"github.com/YuujiKamura/TonSuuChecker-sub001/api/internal/handle"
)

// StartHTTP registers all routes and blocks serving them.
func StartHTTP(addr string, h *handle.Handle) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tonnage estimation api"))
	})
	h.Register(mux)
	log.Printf("listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}
