package orchestrator

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/obsidianstack/hostpager/pkg/types"
	"github.com/obsidianstack/hostpager/setup/internal/cloud"
	"github.com/obsidianstack/hostpager/setup/internal/result"
)

// Status is the state of one stage.
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// StepOutcome is the recorded result of one stage or one monitor.
type StepOutcome struct {
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`
	Warning bool   `json:"warning,omitempty"`
}

// Succeeded reports whether the step succeeded.
func (s StepOutcome) Succeeded() bool { return s.Status == StatusSucceeded }

func skipped(format string, args ...any) StepOutcome {
	return StepOutcome{Status: StatusSkipped, Detail: fmt.Sprintf(format, args...)}
}

// outcome maps a call Result onto a StepOutcome.
func outcome(r result.Result) StepOutcome {
	if r.OK {
		return StepOutcome{Status: StatusSucceeded, Detail: r.Detail, Warning: r.Warning}
	}
	return StepOutcome{Status: StatusFailed, Detail: r.Error()}
}

// MonitorOutcome is the outcome of creating the monitor for one host.
type MonitorOutcome struct {
	Host string `json:"host"`
	StepOutcome
}

// Report is the result of one orchestrator run. It is not modified after Run
// returns.
type Report struct {
	Discovery   StepOutcome      `json:"discovery"`
	Instances   []cloud.Instance `json:"instances,omitempty"`
	TargetHosts types.HostSet    `json:"target_hosts"`
	Webhook     StepOutcome      `json:"webhook"`
	Monitors    []MonitorOutcome `json:"monitors"`
	Paging      StepOutcome      `json:"paging"`
	Health      StepOutcome      `json:"health"`
	Duration    time.Duration    `json:"duration_ns"`
}

// MonitorsSucceeded returns how many monitors were created.
func (r *Report) MonitorsSucceeded() int {
	return lo.CountBy(r.Monitors, func(m MonitorOutcome) bool { return m.Succeeded() })
}

// Success is true when the webhook was registered, at least one monitor was
// created and the paging test was accepted. Discovery and health do not
// affect it.
func (r *Report) Success() bool {
	return r.Webhook.Succeeded() && r.MonitorsSucceeded() >= 1 && r.Paging.Succeeded()
}

// ExitCode returns the process exit code for the report.
func (r *Report) ExitCode() int {
	if r.Success() {
		return 0
	}
	return 1
}

// Warnings lists conditions an operator should act on even though the run
// may have succeeded.
func (r *Report) Warnings() []string {
	var out []string
	if r.Webhook.Succeeded() && r.Webhook.Warning {
		out = append(out, "webhook: "+r.Webhook.Detail)
	}
	if ok := r.MonitorsSucceeded(); ok > 0 && ok < len(r.Monitors) {
		failed := lo.FilterMap(r.Monitors, func(m MonitorOutcome, _ int) (string, bool) {
			return m.Host, !m.Succeeded()
		})
		out = append(out, fmt.Sprintf("monitors: %d of %d failed (%v)", len(failed), len(r.Monitors), failed))
	}
	if r.Success() && r.Health.Status == StatusFailed {
		out = append(out, "relay health check failed: "+r.Health.Detail)
	}
	return out
}
