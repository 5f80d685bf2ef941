package api

import "github.com/obsidianstack/hostpager/relay/internal/history"

// WebhookResponse is the payload for POST /webhook.
type WebhookResponse struct {
	Status            string         `json:"status"` // ignored | success | failed | error
	Reason            string         `json:"reason,omitempty"`
	PagerDutyResponse map[string]any `json:"pagerduty_response,omitempty"`
	Error             string         `json:"error,omitempty"`
	Message           string         `json:"message,omitempty"`
}

// HealthResponse is the payload for GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// DeliveriesResponse is the payload for GET /api/v1/deliveries.
type DeliveriesResponse struct {
	Targets    []string        `json:"targets"`
	Deliveries []history.Entry `json:"deliveries"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
