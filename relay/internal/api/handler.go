package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/obsidianstack/hostpager/pkg/types"
	"github.com/obsidianstack/hostpager/relay/internal/auth"
	"github.com/obsidianstack/hostpager/relay/internal/config"
	"github.com/obsidianstack/hostpager/relay/internal/forward"
	"github.com/obsidianstack/hostpager/relay/internal/history"
)

// maxBodyBytes caps the size of a webhook request body.
const maxBodyBytes = 1 << 20

const ignoredReason = "VM not in target list"

// Forwarder delivers a matched alert to PagerDuty.
type Forwarder interface {
	Forward(ctx context.Context, a forward.Alert) (*forward.Delivery, error)
}

// Handler is the HTTP handler for all relay routes.
type Handler struct {
	mu      sync.RWMutex
	targets types.HostSet

	fwd     Forwarder
	history *history.Store
	metrics *metrics
	mux     *http.ServeMux
	now     func() time.Time
}

// New creates a Handler and registers all routes. Collectors are registered
// on reg, which also backs GET /metrics.
func New(cfg config.RelayConfig, fwd Forwarder, hist *history.Store, reg *prometheus.Registry) *Handler {
	h := &Handler{
		targets: cfg.TargetHosts.Clone(),
		fwd:     fwd,
		history: hist,
		metrics: newMetrics(reg),
		mux:     http.NewServeMux(),
		now:     time.Now,
	}

	webhook := auth.APIKey(cfg.Auth.Mode, cfg.Auth.EffectiveHeader(), cfg.Auth.Key(), http.HandlerFunc(h.webhook))

	h.mux.Handle("/webhook", webhook)
	h.mux.HandleFunc("/health", h.health)
	h.mux.HandleFunc("/api/v1/deliveries", h.deliveries)
	h.mux.HandleFunc("/metrics", h.metricsRoute)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetTargets replaces the target host list used by /webhook.
func (h *Handler) SetTargets(hosts types.HostSet) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.targets = hosts.Clone()
}

// Targets returns a copy of the current target host list.
func (h *Handler) Targets() types.HostSet {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.targets.Clone()
}

// --- route handlers ---------------------------------------------------------

var errNullAlert = errors.New("alert body is null")

// decodeAlert reads one JSON object from body. A literal null is an error.
func decodeAlert(body io.Reader) (*forward.Alert, error) {
	var a *forward.Alert
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&a); err != nil {
		return nil, err
	}
	if a == nil {
		return nil, errNullAlert
	}
	return a, nil
}

// webhook handles POST /webhook.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reqID := uuid.NewString()
	w.Header().Set("X-Request-ID", reqID)
	log := slog.With("request_id", reqID)

	a, err := decodeAlert(r.Body)
	if err != nil {
		h.metrics.count(outcomeError)
		log.Warn("api: invalid webhook body", "err", err)
		jsonResp(w, http.StatusInternalServerError, WebhookResponse{
			Status:  "error",
			Message: "invalid JSON body: " + err.Error(),
		})
		return
	}

	if !h.Targets().Match(a.Hostname) {
		h.metrics.count(outcomeIgnored)
		log.Debug("api: alert ignored", "hostname", a.Hostname)
		jsonResp(w, http.StatusOK, WebhookResponse{Status: "ignored", Reason: ignoredReason})
		return
	}

	d, err := h.fwd.Forward(r.Context(), *a)
	if err != nil {
		h.metrics.count(outcomeError)
		h.history.Put(history.Entry{Hostname: a.Hostname, Status: outcomeError, Detail: err.Error(), RequestID: reqID})
		log.Error("api: forward failed", "hostname", a.Hostname, "err", err)
		jsonResp(w, http.StatusInternalServerError, WebhookResponse{Status: "error", Message: err.Error()})
		return
	}
	h.metrics.observe(d.Duration)

	entry := history.Entry{
		Hostname:  a.Hostname,
		Severity:  d.Event.Payload.Severity,
		Summary:   d.Event.Payload.Summary,
		RequestID: reqID,
	}

	if !d.Accepted() {
		h.metrics.count(outcomeFailed)
		entry.Status = outcomeFailed
		entry.Detail = string(d.Body)
		h.history.Put(entry)
		jsonResp(w, http.StatusInternalServerError, WebhookResponse{Status: "failed", Error: string(d.Body)})
		return
	}

	h.metrics.count(outcomeSuccess)
	entry.Status = outcomeSuccess
	entry.DedupKey = d.DedupKey()
	h.history.Put(entry)

	log.Info("api: alert forwarded",
		"hostname", d.Event.Payload.Source,
		"severity", d.Event.Payload.Severity,
		"dedup_key", entry.DedupKey,
	)
	jsonResp(w, http.StatusOK, WebhookResponse{Status: "success", PagerDutyResponse: d.Response()})
}

// health handles GET /health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// deliveries handles GET /api/v1/deliveries.
func (h *Handler) deliveries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, DeliveriesResponse{
		Targets:    h.Targets(),
		Deliveries: h.history.List(),
	})
}

// metricsRoute handles GET /metrics.
func (h *Handler) metricsRoute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.metrics.exporter.ServeHTTP(w, r)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
