package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/obsidianstack/hostpager/pkg/types"
)

// Default values for optional settings.
const (
	DefaultDatadogSite    = "datadoghq.com"
	DefaultWebhookName    = "pagerduty-relay"
	DefaultEventsURL      = "https://events.pagerduty.com/v2/enqueue"
	DefaultAuthorityHost  = "https://login.microsoftonline.com"
	DefaultResourceMgrURL = "https://management.azure.com"
)

// Input is the unvalidated configuration as typed by a user or read from the
// environment.
type Input struct {
	AzureTenantID       string `env:"AZURE_TENANT_ID"`
	AzureClientID       string `env:"AZURE_CLIENT_ID"`
	AzureClientSecret   string `env:"AZURE_CLIENT_SECRET"`
	AzureSubscriptionID string `env:"AZURE_SUBSCRIPTION_ID"`
	AzureAuthorityHost  string `env:"AZURE_AUTHORITY_HOST" envDefault:"https://login.microsoftonline.com"`
	AzureResourceMgrURL string `env:"AZURE_RESOURCE_MANAGER_ENDPOINT" envDefault:"https://management.azure.com"`

	DatadogAPIKey string `env:"DD_API_KEY"`
	DatadogAppKey string `env:"DD_APP_KEY"`
	DatadogSite   string `env:"DD_SITE" envDefault:"datadoghq.com"`
	// DatadogAPIURL overrides the site-derived API base URL.
	DatadogAPIURL string `env:"DD_API_URL"`
	WebhookName   string `env:"DD_WEBHOOK_NAME" envDefault:"pagerduty-relay"`

	PagerDutyRoutingKey string `env:"PAGERDUTY_ROUTING_KEY"`
	PagerDutyEventsURL  string `env:"PAGERDUTY_EVENTS_URL" envDefault:"https://events.pagerduty.com/v2/enqueue"`

	RelayWebhookURL   string `env:"RELAY_WEBHOOK_URL"`
	RelaySharedSecret string `env:"RELAY_SHARED_SECRET"`

	// TargetHosts is a comma-separated list; empty selects the defaults.
	TargetHosts string `env:"TARGET_HOSTS"`
}

// FromEnv loads dotenv files (missing files are skipped) and then parses the
// process environment into an Input. Variables already set in the environment
// win over dotenv values.
func FromEnv(dotenvPaths ...string) (Input, error) {
	for _, p := range dotenvPaths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Input{}, fmt.Errorf("setup config: load %q: %w", p, err)
		}
	}

	var in Input
	if err := env.Parse(&in); err != nil {
		return Input{}, fmt.Errorf("setup config: parse env: %w", err)
	}
	return in, nil
}

// Cloud holds the Azure service-principal credentials.
type Cloud struct {
	TenantID       string
	ClientID       string
	ClientSecret   string
	SubscriptionID string
	AuthorityHost  string
	ResourceMgrURL string
}

// Datadog holds the monitoring-platform credentials and endpoint.
type Datadog struct {
	APIKey      string
	AppKey      string
	APIURL      string
	WebhookName string
}

// PagerDuty holds the paging-provider credentials and endpoint.
type PagerDuty struct {
	RoutingKey string
	EventsURL  string
}

// Relay describes the deployed hostpager-relay.
type Relay struct {
	WebhookURL   string
	SharedSecret string
}

// Request is the validated configuration for one run.
type Request struct {
	cloud     *Cloud
	datadog   Datadog
	pagerduty PagerDuty
	relay     Relay
	hosts     types.HostSet
}

// NewRequest validates in and returns a Request, or an error naming every
// problem found.
func NewRequest(in Input) (*Request, error) {
	in = trimmed(in)
	var errs []error

	required := []struct{ name, value string }{
		{"DD_API_KEY", in.DatadogAPIKey},
		{"DD_APP_KEY", in.DatadogAppKey},
		{"PAGERDUTY_ROUTING_KEY", in.PagerDutyRoutingKey},
		{"RELAY_WEBHOOK_URL", in.RelayWebhookURL},
	}
	for _, f := range required {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", f.name))
		}
	}

	if in.RelayWebhookURL != "" {
		if err := checkHTTPURL(in.RelayWebhookURL); err != nil {
			errs = append(errs, fmt.Errorf("RELAY_WEBHOOK_URL: %w", err))
		}
	}

	req := &Request{
		datadog: Datadog{
			APIKey:      in.DatadogAPIKey,
			AppKey:      in.DatadogAppKey,
			APIURL:      datadogAPIURL(in),
			WebhookName: orDefault(in.WebhookName, DefaultWebhookName),
		},
		pagerduty: PagerDuty{
			RoutingKey: in.PagerDutyRoutingKey,
			EventsURL:  orDefault(in.PagerDutyEventsURL, DefaultEventsURL),
		},
		relay: Relay{
			WebhookURL:   in.RelayWebhookURL,
			SharedSecret: in.RelaySharedSecret,
		},
		hosts: types.ParseHosts(in.TargetHosts),
	}
	if len(req.hosts) == 0 {
		req.hosts = types.DefaultHosts()
	}

	for _, u := range []struct{ name, value string }{
		{"DD_API_URL", req.datadog.APIURL},
		{"PAGERDUTY_EVENTS_URL", req.pagerduty.EventsURL},
	} {
		if err := checkHTTPURL(u.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u.name, err))
		}
	}

	// The tenant ID switches the Azure block on; once on, all of it is required.
	if in.AzureTenantID != "" {
		for _, f := range []struct{ name, value string }{
			{"AZURE_CLIENT_ID", in.AzureClientID},
			{"AZURE_CLIENT_SECRET", in.AzureClientSecret},
			{"AZURE_SUBSCRIPTION_ID", in.AzureSubscriptionID},
		} {
			if f.value == "" {
				errs = append(errs, fmt.Errorf("%s is required when AZURE_TENANT_ID is set", f.name))
			}
		}
		req.cloud = &Cloud{
			TenantID:       in.AzureTenantID,
			ClientID:       in.AzureClientID,
			ClientSecret:   in.AzureClientSecret,
			SubscriptionID: in.AzureSubscriptionID,
			AuthorityHost:  strings.TrimRight(orDefault(in.AzureAuthorityHost, DefaultAuthorityHost), "/"),
			ResourceMgrURL: strings.TrimRight(orDefault(in.AzureResourceMgrURL, DefaultResourceMgrURL), "/"),
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("setup config: %w", errors.Join(errs...))
	}
	return req, nil
}

// Cloud returns the Azure credentials and whether they were supplied.
func (r *Request) Cloud() (Cloud, bool) {
	if r.cloud == nil {
		return Cloud{}, false
	}
	return *r.cloud, true
}

// Datadog returns the monitoring-platform settings.
func (r *Request) Datadog() Datadog { return r.datadog }

// PagerDuty returns the paging-provider settings.
func (r *Request) PagerDuty() PagerDuty { return r.pagerduty }

// Relay returns the relay settings.
func (r *Request) Relay() Relay { return r.relay }

// TargetHosts returns a copy of the configured target host set.
func (r *Request) TargetHosts() types.HostSet { return r.hosts.Clone() }

// Summary returns a redacted, human-readable description of the request,
// suitable for the confirmation prompt.
func (r *Request) Summary() []string {
	lines := []string{}
	if c, ok := r.Cloud(); ok {
		lines = append(lines,
			"Azure tenant:       "+c.TenantID,
			"Azure subscription: "+c.SubscriptionID,
		)
	} else {
		lines = append(lines, "Azure discovery:    skipped (no tenant ID)")
	}
	lines = append(lines,
		"Datadog API:        "+r.datadog.APIURL,
		"Datadog API key:    "+Redact(r.datadog.APIKey),
		"Datadog webhook:    "+r.datadog.WebhookName,
		"PagerDuty key:      "+Redact(r.pagerduty.RoutingKey),
		"Relay webhook URL:  "+r.relay.WebhookURL,
		"Target hosts:       "+r.hosts.String(),
	)
	return lines
}

// Redact keeps the last four characters of a secret.
func Redact(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func datadogAPIURL(in Input) string {
	if in.DatadogAPIURL != "" {
		return strings.TrimRight(in.DatadogAPIURL, "/")
	}
	site := orDefault(in.DatadogSite, DefaultDatadogSite)
	return "https://api." + strings.TrimPrefix(site, "app.")
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func trimmed(in Input) Input {
	for _, p := range []*string{
		&in.AzureTenantID, &in.AzureClientID, &in.AzureClientSecret, &in.AzureSubscriptionID,
		&in.AzureAuthorityHost, &in.AzureResourceMgrURL,
		&in.DatadogAPIKey, &in.DatadogAppKey, &in.DatadogSite, &in.DatadogAPIURL, &in.WebhookName,
		&in.PagerDutyRoutingKey, &in.PagerDutyEventsURL,
		&in.RelayWebhookURL, &in.RelaySharedSecret, &in.TargetHosts,
	} {
		*p = strings.TrimSpace(*p)
	}
	return in
}
