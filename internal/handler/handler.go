package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angeloszaimis/cognitive-core/internal/core"
	"github.com/angeloszaimis/cognitive-core/internal/engine"
	"github.com/angeloszaimis/cognitive-core/internal/memory"
	"github.com/angeloszaimis/cognitive-core/internal/metrics"
	"github.com/angeloszaimis/cognitive-core/internal/registry"
)

const serviceName = "cognitive-core"

const (
	defaultMaxTextLength = 10000
	defaultMaxAudioBytes = 5 << 20
)

// Limits bounds request payloads at the HTTP boundary. The core input
// builders enforce their own hard caps; these are the configured ones.
type Limits struct {
	MaxTextLength int
	MaxAudioBytes int
}

// Handler exposes the processing pipeline and its surrounding
// subsystems over HTTP. The store and collector may be nil: the memory
// endpoints then report the store as unavailable, and no metrics
// events are emitted.
type Handler struct {
	logger    *slog.Logger
	engine    *engine.Engine
	registry  *registry.Registry
	store     memory.Store
	collector *metrics.Collector
	limits    Limits
	version   string
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// New creates a handler. Zero limits fall back to the defaults.
func New(logger *slog.Logger, eng *engine.Engine, reg *registry.Registry, store memory.Store, collector *metrics.Collector, limits Limits, version string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if limits.MaxTextLength <= 0 {
		limits.MaxTextLength = defaultMaxTextLength
	}
	if limits.MaxAudioBytes <= 0 {
		limits.MaxAudioBytes = defaultMaxAudioBytes
	}
	if version == "" {
		version = "dev"
	}
	return &Handler{
		logger:    logger,
		engine:    eng,
		registry:  reg,
		store:     store,
		collector: collector,
		limits:    limits,
		version:   version,
	}
}

// ProcessText handles POST /process/text.
func (h *Handler) ProcessText(w http.ResponseWriter, r *http.Request) {
	var req ProcessTextRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(h.limits.MaxTextLength); err != nil {
		h.rejectInput(w, r, err)
		return
	}

	resp, err := h.engine.ProcessText(r.Context(), req.Text, req.Source, req.Metadata)
	h.respond(w, r, resp, err)
}

// ProcessEvent handles POST /process/event.
func (h *Handler) ProcessEvent(w http.ResponseWriter, r *http.Request) {
	var req ProcessEventRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.rejectInput(w, r, err)
		return
	}

	resp, err := h.engine.ProcessEvent(r.Context(), req.EventType, req.Payload, req.Metadata)
	h.respond(w, r, resp, err)
}

// ProcessAudio handles POST /process/audio.
func (h *Handler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	var req ProcessAudioRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.rejectInput(w, r, err)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.DataBase64)
	if err != nil {
		h.rejectInput(w, r, fmt.Errorf("decoding audio payload: %w", err))
		return
	}
	if len(data) > h.limits.MaxAudioBytes {
		h.rejectInput(w, r, fmt.Errorf("audio payload is %d bytes, limit is %d", len(data), h.limits.MaxAudioBytes))
		return
	}

	resp, err := h.engine.ProcessAudio(r.Context(), data, req.Format, req.Metadata)
	h.respond(w, r, resp, err)
}

// MemorySearch handles GET /memory/search. Query parameters: tags
// (comma-separated, ANDed), type, contains, limit.
func (h *Handler) MemorySearch(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "memory store is disabled")
		return
	}

	params := r.URL.Query()
	q := memory.Query{
		Type:            params.Get("type"),
		ContentContains: params.Get("contains"),
	}
	for _, tag := range strings.Split(params.Get("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			q.Tags = append(q.Tags, tag)
		}
	}
	if raw := params.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		q.Limit = limit
	}

	entries, err := h.store.Search(r.Context(), q)
	if err != nil {
		h.logger.Error("memory search failed", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []*memory.Entry{}
	}
	h.writeJSON(w, http.StatusOK, searchResponse{Results: entries, Count: len(entries)})
}

// MemoryStats handles GET /memory/stats.
func (h *Handler) MemoryStats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		h.writeError(w, http.StatusServiceUnavailable, "memory store is disabled")
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.logger.Error("memory stats failed", slog.String("error", err.Error()))
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// Stats handles GET /stats with the engine-wide aggregate.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Stats(r.Context()))
}

// Domains handles GET /domains with the registry view.
func (h *Handler) Domains(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Stats())
}

// Health handles GET /health. Every domain is probed; any enabled
// domain probing unhealthy degrades the service to 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	results := h.engine.HealthCheck(r.Context())
	stats := h.registry.Stats()

	status := http.StatusOK
	overall := "healthy"
	for name, health := range results {
		rec, ok := stats.Domains[name]
		if ok && rec.Enabled && health == registry.Unhealthy {
			status = http.StatusServiceUnavailable
			overall = "degraded"
			break
		}
	}
	h.writeJSON(w, status, healthResponse{Status: overall, Domains: results})
}

// Root handles GET / with the service card.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, serviceCard{
		Name:    serviceName,
		Version: h.version,
		Endpoints: []string{
			"POST /process/text",
			"POST /process/event",
			"POST /process/audio",
			"GET /memory/search",
			"GET /memory/stats",
			"GET /stats",
			"GET /domains",
			"GET /metrics",
			"GET /health",
		},
	})
}

// AccessLog wraps next with per-request logging.
func (h *Handler) AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		h.logger.Info("request handled",
			slog.String("from", extractClientIP(r)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.statusCode),
			slog.Duration("duration", time.Since(start)))
	})
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

// decode reads the JSON body into dst, answering 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.rejectInput(w, r, fmt.Errorf("decoding request body: %w", err))
		return false
	}
	return true
}

// rejectInput answers 400 for an input that never reached the
// pipeline, counting it as a failed processing attempt.
func (h *Handler) rejectInput(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Warn("request rejected",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	h.emit(metrics.Event{Type: metrics.EventProcessingFailed})
	h.writeError(w, http.StatusBadRequest, err.Error())
}

// respond maps a pipeline result onto the wire: 200 on success, 400
// for invalid inputs, 422 when no domain accepts, 500 otherwise.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, resp *core.Response, err error) {
	if err == nil {
		h.writeJSON(w, http.StatusOK, processResponse{Response: resp})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNoDomain):
		status = http.StatusUnprocessableEntity
	}

	h.logger.Warn("processing request failed",
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()))
	h.writeJSON(w, status, errorBody{Error: err.Error(), Response: resp})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorBody{Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response", slog.String("error", err.Error()))
	}
}

func (h *Handler) emit(e metrics.Event) {
	if h.collector == nil {
		return
	}
	h.collector.Emit(e)
}
