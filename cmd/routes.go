package main

import (
	"net/http"

	"github.com/angeloszaimis/cognitive-core/internal/handler"
	"github.com/angeloszaimis/cognitive-core/internal/metrics"
)

// setupRoutes wires the HTTP surface onto a mux wrapped in access
// logging.
func setupRoutes(h *handler.Handler, collector *metrics.Collector) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /process/text", h.ProcessText)
	mux.HandleFunc("POST /process/event", h.ProcessEvent)
	mux.HandleFunc("POST /process/audio", h.ProcessAudio)

	mux.HandleFunc("GET /memory/search", h.MemorySearch)
	mux.HandleFunc("GET /memory/stats", h.MemoryStats)

	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("GET /domains", h.Domains)
	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", collector.Handler())

	mux.HandleFunc("GET /{$}", h.Root)

	return h.AccessLog(mux)
}
