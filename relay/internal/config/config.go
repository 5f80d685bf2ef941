package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/hostpager/pkg/types"
)

// Default values for the relay configuration.
const (
	DefaultHTTPPort         = 5000
	DefaultLogLevel         = "info"
	DefaultRoutingKeyEnv    = "PAGERDUTY_ROUTING_KEY"
	DefaultEventsURL        = "https://events.pagerduty.com/v2/enqueue"
	DefaultPagerDutyTimeout = 10 * time.Second
	DefaultAuthHeader       = "X-Hostpager-Key"
	DefaultHistoryTTL       = time.Hour
)

// Config holds the relay configuration parsed from the `relay:` section of
// the YAML file. Other top-level keys are ignored.
type Config struct {
	Relay RelayConfig `yaml:"relay"`
}

// RelayConfig holds all relay settings.
type RelayConfig struct {
	// HTTPPort is the port the HTTP server listens on (default 5000).
	HTTPPort int `yaml:"http_port"`

	// LogLevel is one of: debug | info | warn | error.
	LogLevel string `yaml:"log_level"`

	// TargetHosts lists the host-name substrings whose alerts are forwarded.
	// Matching is case-insensitive.
	TargetHosts types.HostSet `yaml:"target_hosts"`

	// PagerDuty configures the Events API v2 destination.
	PagerDuty PagerDutyConfig `yaml:"pagerduty"`

	// Auth configures the optional shared-secret check on POST /webhook.
	Auth AuthConfig `yaml:"auth"`

	// History controls the in-memory delivery history.
	History HistoryConfig `yaml:"history"`
}

// PagerDutyConfig defines the PagerDuty Events API v2 target.
type PagerDutyConfig struct {
	// RoutingKeyEnv is the name of the environment variable holding the
	// integration routing key.
	RoutingKeyEnv string `yaml:"routing_key_env"`

	// EventsURL is the enqueue endpoint. Override only for testing or for
	// PagerDuty's EU service region.
	EventsURL string `yaml:"events_url"`

	// Timeout bounds each enqueue request.
	Timeout time.Duration `yaml:"timeout"`
}

// RoutingKey returns the routing key resolved from the environment.
func (p PagerDutyConfig) RoutingKey() string {
	if p.RoutingKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.RoutingKeyEnv)
}

// AuthConfig controls how the relay authenticates webhook callers.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the shared secret.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header the secret is read from.
	// Defaults to "X-Hostpager-Key" if empty.
	Header string `yaml:"header"`
}

// Key returns the expected shared secret resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultAuthHeader
}

// HistoryConfig controls in-memory delivery history retention.
type HistoryConfig struct {
	// TTL is how long a host's last delivery outcome stays listed.
	TTL time.Duration `yaml:"ttl"`
}

// Level converts LogLevel to a slog.Level. Unknown values map to info.
func (r RelayConfig) Level() slog.Level {
	switch strings.ToLower(r.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the config file at path. An empty path returns the
// defaults, which is enough to run the relay with only PAGERDUTY_ROUTING_KEY set.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("relay config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("relay config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("relay config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Relay: RelayConfig{
			HTTPPort:    DefaultHTTPPort,
			LogLevel:    DefaultLogLevel,
			TargetHosts: types.DefaultHosts(),
			PagerDuty: PagerDutyConfig{
				RoutingKeyEnv: DefaultRoutingKeyEnv,
				EventsURL:     DefaultEventsURL,
				Timeout:       DefaultPagerDutyTimeout,
			},
			History: HistoryConfig{
				TTL: DefaultHistoryTTL,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	r := cfg.Relay
	if r.HTTPPort <= 0 || r.HTTPPort > 65535 {
		return fmt.Errorf("relay.http_port %d is out of range [1, 65535]", r.HTTPPort)
	}
	switch strings.ToLower(r.LogLevel) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("relay.log_level %q unknown: want debug|info|warn|error", r.LogLevel)
	}
	if len(r.TargetHosts) == 0 {
		return fmt.Errorf("relay.target_hosts must not be empty")
	}
	for i, h := range r.TargetHosts {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("relay.target_hosts[%d] is blank", i)
		}
	}
	u, err := url.Parse(r.PagerDuty.EventsURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("relay.pagerduty.events_url %q is not an absolute URL", r.PagerDuty.EventsURL)
	}
	if r.PagerDuty.Timeout <= 0 {
		return fmt.Errorf("relay.pagerduty.timeout must be positive")
	}
	switch r.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("relay.auth.mode %q unknown: want apikey|none", r.Auth.Mode)
	}
	if r.Auth.Mode == "apikey" && r.Auth.KeyEnv == "" {
		return fmt.Errorf("relay.auth.key_env is required when auth.mode is apikey")
	}
	if r.Auth.Mode == "apikey" && r.Auth.Key() == "" {
		return fmt.Errorf("relay.auth.mode is apikey but $%s is empty", r.Auth.KeyEnv)
	}
	if r.History.TTL <= 0 {
		return fmt.Errorf("relay.history.ttl must be positive")
	}
	return nil
}
