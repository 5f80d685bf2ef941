package datadog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/obsidianstack/hostpager/setup/internal/result"
)

const monitorPath = "/api/v1/monitor"

// CPU idle thresholds in percent: the monitor fires below critical.
const (
	idleCritical = 10.0
	idleWarning  = 20.0
)

// Monitor is the subset of the Datadog monitor definition hostpager sets.
type Monitor struct {
	Name    string         `json:"name"`
	Type    string         `json:"type"`
	Query   string         `json:"query"`
	Message string         `json:"message"`
	Tags    []string       `json:"tags"`
	Options MonitorOptions `json:"options"`
}

// MonitorOptions holds the monitor's notification behaviour.
type MonitorOptions struct {
	Thresholds       Thresholds `json:"thresholds"`
	NotifyNoData     bool       `json:"notify_no_data"`
	RenotifyInterval int        `json:"renotify_interval"`
	NewHostDelay     int        `json:"new_host_delay"`
	IncludeTags      bool       `json:"include_tags"`
}

// Thresholds are the critical and warning levels for a metric alert.
type Thresholds struct {
	Critical float64 `json:"critical"`
	Warning  float64 `json:"warning"`
}

// HostMonitor builds the CPU monitor definition for host, notifying the
// named webhook.
func HostMonitor(host, webhook string) Monitor {
	return Monitor{
		Name:  fmt.Sprintf("[hostpager] High CPU on %s", host),
		Type:  "metric alert",
		Query: fmt.Sprintf("avg(last_5m):avg:system.cpu.idle{host:%s} < %g", host, idleCritical),
		Message: fmt.Sprintf("CPU idle on %s has dropped below %g%% for 5 minutes.\n"+
			"{{#is_warning}}CPU idle is below %g%%.{{/is_warning}}\n@webhook-%s",
			host, idleCritical, idleWarning, webhook),
		Tags: []string{
			"host:" + host,
			"service:hostpager",
			"team:infrastructure",
			"priority:p2",
		},
		Options: MonitorOptions{
			Thresholds:       Thresholds{Critical: idleCritical, Warning: idleWarning},
			NotifyNoData:     false,
			RenotifyInterval: 60,
			NewHostDelay:     300,
			IncludeTags:      true,
		},
	}
}

// CreateHostMonitor creates the CPU monitor for host. Existing monitors are
// not checked, so repeated runs create duplicates.
func (c *Client) CreateHostMonitor(ctx context.Context, host string) result.Result {
	resp, err := c.post(ctx, monitorPath, HostMonitor(host, c.cfg.WebhookName))
	if err != nil {
		slog.Error("datadog: monitor create failed", "host", host, "err", err)
		return result.Transport(err, "create monitor for %s", host)
	}

	if resp.status != http.StatusOK && resp.status != http.StatusCreated {
		slog.Error("datadog: monitor create rejected",
			"host", host,
			"status", resp.status,
			"body", string(resp.body),
		)
		return result.Rejected(resp.status, string(resp.body))
	}

	var created struct {
		ID int64 `json:"id"`
	}
	_ = json.Unmarshal(resp.body, &created)
	slog.Info("datadog: monitor created", "host", host, "monitor_id", created.ID)
	if created.ID != 0 {
		return result.Success(resp.status, "monitor %d for %s", created.ID, host)
	}
	return result.Success(resp.status, "monitor for %s", host)
}
