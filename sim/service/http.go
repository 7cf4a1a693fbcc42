package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/edge-sim/edge-sim/sim"
	"github.com/edge-sim/edge-sim/sim/dispatch"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// requestTimeout bounds every HTTP request, including the wait for the dispatcher.
const requestTimeout = 60 * time.Second

// NewRouter builds the HTTP API. instructions may be nil when no dispatch
// collaborator is wired; gatherer may be nil to omit /metrics.
func NewRouter(svc *Service, instructions *dispatch.Manager, gatherer prometheus.Gatherer) http.Handler {
	h := &handler{svc: svc, instructions: instructions}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("not found; use a versioned path like /api/v1/..."))
	})
	r.Get("/healthz", h.healthz)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/requests", h.submitRequest)
		api.Delete("/requests/{requestId}", h.cancelRequest)
		api.Get("/servers", h.listServers)
		api.Put("/servers/{serverId}/active", h.setServerActive)
		api.Get("/servers/{serverId}/instructions", h.drainInstructions)
		api.Get("/placements", h.listPlacements)
		api.Get("/pending", h.listPending)
		api.Post("/tick", h.tick)
	})
	return r
}

type handler struct {
	svc          *Service
	instructions *dispatch.Manager
}

// submitResponse is returned by POST /requests.
type submitResponse struct {
	Placed    bool                  `json:"placed"`
	Placement *sim.ServicePlacement `json:"placement,omitempty"`
}

// activeRequest is the body of PUT /servers/{serverId}/active.
type activeRequest struct {
	Active *bool `json:"active"`
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.svc.Done():
		writeError(w, http.StatusServiceUnavailable, ErrServiceStopped)
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// submitRequest handles POST /requests. Placed requests answer 201, queued ones 202.
func (h *handler) submitRequest(w http.ResponseWriter, r *http.Request) {
	var req sim.ServiceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	placement, placed, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !placed {
		writeJSON(w, http.StatusAccepted, submitResponse{Placed: false})
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{Placed: true, Placement: &placement})
}

// cancelRequest handles DELETE /requests/{requestId}.
func (h *handler) cancelRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "requestId")
	if !ok {
		return
	}
	removed, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"request_id": id, "removed": removed})
}

func (h *handler) listServers(w http.ResponseWriter, r *http.Request) {
	servers, err := h.svc.Servers(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, servers)
}

// setServerActive handles PUT /servers/{serverId}/active with body {"active": bool}.
func (h *handler) setServerActive(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "serverId")
	if !ok {
		return
	}
	var body activeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Active == nil {
		writeError(w, http.StatusBadRequest, errors.New(`body must be {"active": true|false}`))
		return
	}
	if err := h.svc.SetServerActive(r.Context(), id, *body.Active); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"server_id": id, "active": *body.Active})
}

// drainInstructions handles GET /servers/{serverId}/instructions, draining the queue.
func (h *handler) drainInstructions(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "serverId")
	if !ok {
		return
	}
	if h.instructions == nil {
		writeError(w, http.StatusNotImplemented, errors.New("dispatch is not enabled"))
		return
	}
	known, err := h.svc.HasServer(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !known {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %d", ErrUnknownServer, id))
		return
	}
	instructions := h.instructions.DrainPending(id)
	if instructions == nil {
		instructions = []dispatch.Instruction{}
	}
	writeJSON(w, http.StatusOK, instructions)
}

func (h *handler) listPlacements(w http.ResponseWriter, r *http.Request) {
	placements, err := h.svc.Placements(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, placements)
}

func (h *handler) listPending(w http.ResponseWriter, r *http.Request) {
	pending, err := h.svc.Pending(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *handler) tick(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Tick(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%s must be an integer, got %q", name, raw))
		return 0, false
	}
	return v, true
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, ErrUnknownServer):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrServiceStopped):
		writeError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		writeError(w, http.StatusGatewayTimeout, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Warnf("encoding response: %v", err)
	}
}

// requestLogger logs each request through logrus with chi's request id.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start),
		}).Debug("http request")
	})
}
