package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/obsidianstack/hostpager/relay/internal/config"
)

// maxResponseBytes caps how much of a PagerDuty response body is kept.
const maxResponseBytes = 64 << 10

// Delivery is the outcome of one enqueue request that reached PagerDuty.
type Delivery struct {
	Event      Event
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Accepted reports whether PagerDuty accepted the event (HTTP 202).
func (d *Delivery) Accepted() bool {
	return d.StatusCode == http.StatusAccepted
}

// Response decodes the PagerDuty response body. Bodies that are not a JSON
// object come back under the "raw" key.
func (d *Delivery) Response() map[string]any {
	var out map[string]any
	if err := json.Unmarshal(d.Body, &out); err != nil || out == nil {
		return map[string]any{"raw": string(d.Body)}
	}
	return out
}

// DedupKey returns the dedup_key PagerDuty assigned, or "".
func (d *Delivery) DedupKey() string {
	if k, ok := d.Response()["dedup_key"].(string); ok {
		return k
	}
	return ""
}

// Forwarder posts trigger events to the PagerDuty Events API v2.
//
// Forwarder is safe for concurrent use.
type Forwarder struct {
	routingKey string
	eventsURL  string
	client     *http.Client
	now        func() time.Time
}

// New creates a Forwarder from the relay's PagerDuty configuration.
func New(cfg config.PagerDutyConfig) *Forwarder {
	return &Forwarder{
		routingKey: cfg.RoutingKey(),
		eventsURL:  cfg.EventsURL,
		client:     &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

// Forward builds the trigger event for a and posts it. A non-nil error means
// the request never produced a response (build, transport or read failure);
// any HTTP status, including rejections, is returned as a Delivery.
func (f *Forwarder) Forward(ctx context.Context, a Alert) (*Delivery, error) {
	ev := BuildEvent(f.routingKey, a, f.now())

	body, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("forward: encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.eventsURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("forward: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forward: http post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("forward: read response: %w", err)
	}

	d := &Delivery{
		Event:      ev,
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Duration:   time.Since(start),
	}

	if d.Accepted() {
		slog.Debug("forward: event accepted",
			"source", ev.Payload.Source,
			"severity", ev.Payload.Severity,
			"dedup_key", d.DedupKey(),
		)
	} else {
		slog.Warn("forward: event rejected",
			"source", ev.Payload.Source,
			"status", resp.StatusCode,
			"body", string(respBody),
		)
	}
	return d, nil
}
