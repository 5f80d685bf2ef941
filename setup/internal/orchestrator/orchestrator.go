package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/obsidianstack/hostpager/pkg/types"
	"github.com/obsidianstack/hostpager/setup/internal/cloud"
	"github.com/obsidianstack/hostpager/setup/internal/config"
	"github.com/obsidianstack/hostpager/setup/internal/datadog"
	"github.com/obsidianstack/hostpager/setup/internal/pagerduty"
	"github.com/obsidianstack/hostpager/setup/internal/probe"
	"github.com/obsidianstack/hostpager/setup/internal/result"
)

// Locator discovers compute instances.
type Locator interface {
	Authenticate(ctx context.Context) result.Result
	FindTargetVMs(ctx context.Context, targets types.HostSet) ([]cloud.Instance, result.Result)
}

// Provisioner creates the monitoring webhook and monitors.
type Provisioner interface {
	CreateWebhook(ctx context.Context) result.Result
	CreateHostMonitor(ctx context.Context, host string) result.Result
}

// Verifier checks the paging integration.
type Verifier interface {
	SendTestAlert(ctx context.Context) result.Result
}

// Prober checks the relay's health endpoint.
type Prober interface {
	CheckHealth(ctx context.Context, webhookURL string) result.Result
}

// Orchestrator runs the configuration stages for one Request.
type Orchestrator struct {
	req         *config.Request
	locator     Locator
	provisioner Provisioner
	verifier    Verifier
	prober      Prober
}

// Option overrides a collaborator.
type Option func(*Orchestrator)

// WithLocator sets the instance locator. A nil Locator skips discovery.
func WithLocator(l Locator) Option { return func(o *Orchestrator) { o.locator = l } }

// WithProvisioner sets the monitoring provisioner.
func WithProvisioner(p Provisioner) Option { return func(o *Orchestrator) { o.provisioner = p } }

// WithVerifier sets the paging verifier.
func WithVerifier(v Verifier) Option { return func(o *Orchestrator) { o.verifier = v } }

// WithProber sets the health prober.
func WithProber(p Prober) Option { return func(o *Orchestrator) { o.prober = p } }

// New wires the real Azure, Datadog, PagerDuty and probe clients for req.
// Discovery is only wired when req carries cloud credentials.
func New(req *config.Request, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		req:         req,
		provisioner: datadog.New(req.Datadog(), req.Relay()),
		verifier:    pagerduty.New(req.PagerDuty()),
		prober:      probe.New(),
	}
	if c, ok := req.Cloud(); ok {
		o.locator = cloud.New(c)
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes every stage in order and returns the report. It never stops
// early; a cancelled ctx makes the remaining calls fail quickly.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	start := time.Now()
	r := &Report{TargetHosts: o.req.TargetHosts()}

	o.discover(ctx, r)

	slog.Info("orchestrator: creating webhook")
	r.Webhook = outcome(o.provisioner.CreateWebhook(ctx))

	for _, host := range r.TargetHosts {
		slog.Info("orchestrator: creating monitor", "host", host)
		r.Monitors = append(r.Monitors, MonitorOutcome{
			Host:        host,
			StepOutcome: outcome(o.provisioner.CreateHostMonitor(ctx, host)),
		})
	}

	slog.Info("orchestrator: sending paging test event")
	r.Paging = outcome(o.verifier.SendTestAlert(ctx))

	slog.Info("orchestrator: probing relay health")
	r.Health = outcome(o.prober.CheckHealth(ctx, o.req.Relay().WebhookURL))

	r.Duration = time.Since(start)
	slog.Info("orchestrator: run complete",
		"success", r.Success(),
		"monitors_ok", r.MonitorsSucceeded(),
		"monitors_total", len(r.Monitors),
		"duration_ms", r.Duration.Milliseconds(),
	)
	return r
}

// discover refines r.TargetHosts from VM names. The default hosts are kept
// when discovery is skipped, fails, or matches nothing.
func (o *Orchestrator) discover(ctx context.Context, r *Report) {
	if o.locator == nil {
		r.Discovery = skipped("no cloud tenant ID supplied; using target hosts %s", r.TargetHosts)
		return
	}

	slog.Info("orchestrator: authenticating to cloud")
	if res := o.locator.Authenticate(ctx); !res.OK {
		r.Discovery = outcome(res)
		return
	}

	instances, res := o.locator.FindTargetVMs(ctx, r.TargetHosts)
	if !res.OK {
		r.Discovery = outcome(res)
		return
	}

	r.Discovery = outcome(res)
	if len(instances) == 0 {
		r.Discovery.Detail += "; no matching VMs, keeping target hosts " + r.TargetHosts.String()
		return
	}
	r.Instances = instances
	r.TargetHosts = lo.Map(instances, func(in cloud.Instance, _ int) string { return in.Name })
}
