package pagerduty

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/obsidianstack/hostpager/setup/internal/config"
	"github.com/obsidianstack/hostpager/setup/internal/result"
)

const (
	defaultTimeout = 10 * time.Second
	maxBody        = 64 << 10

	testSummary = "hostpager setup: integration test alert"
	testSource  = "hostpager-setup"
)

type testEvent struct {
	RoutingKey  string      `json:"routing_key"`
	EventAction string      `json:"event_action"`
	DedupKey    string      `json:"dedup_key"`
	Payload     testPayload `json:"payload"`
}

type testPayload struct {
	Summary       string         `json:"summary"`
	Source        string         `json:"source"`
	Severity      string         `json:"severity"`
	Timestamp     string         `json:"timestamp"`
	CustomDetails map[string]any `json:"custom_details"`
}

// Verifier sends test events to PagerDuty.
type Verifier struct {
	cfg    config.PagerDuty
	client *http.Client
	now    func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithHTTPClient replaces the default 10s-timeout client.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Verifier) { v.client = c }
}

// New creates a Verifier.
func New(cfg config.PagerDuty, opts ...Option) *Verifier {
	v := &Verifier{
		cfg:    cfg,
		client: &http.Client{Timeout: defaultTimeout},
		now:    time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// SendTestAlert triggers one info-severity event. Only HTTP 202 counts as
// success. The event opens a real incident in the target service, which the
// operator resolves by hand.
func (v *Verifier) SendTestAlert(ctx context.Context) result.Result {
	ev := testEvent{
		RoutingKey:  v.cfg.RoutingKey,
		EventAction: "trigger",
		DedupKey:    "hostpager-setup-" + uuid.NewString(),
		Payload: testPayload{
			Summary:   testSummary,
			Source:    testSource,
			Severity:  "info",
			Timestamp: v.now().UTC().Format(time.RFC3339),
			CustomDetails: map[string]any{
				"test":    true,
				"message": "Sent by hostpager-setup to verify the routing key. Safe to resolve.",
			},
		},
	}

	status, body, err := v.post(ctx, ev)
	if err != nil {
		slog.Error("pagerduty: test alert failed", "url", v.cfg.EventsURL, "err", err)
		return result.Transport(err, "send test alert")
	}
	if status != http.StatusAccepted {
		slog.Error("pagerduty: test alert rejected", "status", status, "body", string(body))
		return result.Rejected(status, string(body))
	}

	var accepted struct {
		Status   string `json:"status"`
		DedupKey string `json:"dedup_key"`
	}
	_ = json.Unmarshal(body, &accepted)
	slog.Info("pagerduty: test alert accepted", "dedup_key", accepted.DedupKey)
	return result.Success(status, "test event accepted (dedup_key %s)", accepted.DedupKey)
}

func (v *Verifier) post(ctx context.Context, ev testEvent) (int, []byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return 0, nil, fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.cfg.EventsURL, bytes.NewReader(b))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
