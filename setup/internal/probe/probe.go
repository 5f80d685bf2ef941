package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/obsidianstack/hostpager/setup/internal/result"
)

const (
	defaultTimeout = 10 * time.Second
	maxBody        = 16 << 10
)

// Remediation is appended to every failed health check.
const Remediation = "deploy the relay first: run `hostpager-relay -config relay.yaml` " +
	"with PAGERDUTY_ROUTING_KEY set, make it reachable from the internet at the " +
	"configured webhook URL, then re-run hostpager-setup"

// HealthURL derives the relay's health endpoint from its webhook URL by
// replacing a trailing /webhook path segment with /health, or appending
// /health when there is none. Query and fragment are dropped.
func HealthURL(webhookURL string) (string, error) {
	u, err := url.Parse(webhookURL)
	if err != nil {
		return "", fmt.Errorf("probe: parse webhook url: %w", err)
	}
	p := strings.TrimRight(u.Path, "/")
	p = strings.TrimSuffix(p, "/webhook")
	u.Path = p + "/health"
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// Prober issues health checks.
type Prober struct {
	client *http.Client
}

// New creates a Prober with a 10s request timeout.
func New() *Prober {
	return &Prober{client: &http.Client{Timeout: defaultTimeout}}
}

// CheckHealth GETs the health endpoint for webhookURL. It succeeds only on
// HTTP 200 with a JSON body.
func (p *Prober) CheckHealth(ctx context.Context, webhookURL string) result.Result {
	target, err := HealthURL(webhookURL)
	if err != nil {
		return result.Failed(result.KindRejected, "%v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return result.Failed(result.KindRejected, "probe: build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		slog.Warn("probe: relay unreachable", "url", target, "err", err)
		return result.Transport(err, "relay unreachable at %s; %s", target, Remediation)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode != http.StatusOK {
		slog.Warn("probe: relay unhealthy", "url", target, "status", resp.StatusCode)
		res := result.Rejected(resp.StatusCode, string(body))
		res.Detail += "; " + Remediation
		return res
	}
	if !isJSON(resp.Header.Get("Content-Type"), body) {
		slog.Warn("probe: relay health response is not JSON", "url", target)
		return result.Failed(result.KindRejected, "%s answered 200 without a JSON body; is something else listening there? %s", target, Remediation)
	}

	var health struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(body, &health)
	slog.Info("probe: relay healthy", "url", target, "status", health.Status)
	return result.Success(resp.StatusCode, "relay healthy at %s", target)
}

func isJSON(contentType string, body []byte) bool {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil && mt == "application/json" {
		return true
	}
	return json.Valid(body) && len(strings.TrimSpace(string(body))) > 0
}
