package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/obsidianstack/hostpager/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "relay.yaml")
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	// Only an unrelated section present; the relay section is absent.
	p := writeConfig(t, `setup:
  datadog_site: datadoghq.eu
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Relay.HTTPPort != DefaultHTTPPort {
		t.Errorf("http_port: got %d, want %d", cfg.Relay.HTTPPort, DefaultHTTPPort)
	}
	if diff := cmp.Diff(types.DefaultHosts(), cfg.Relay.TargetHosts); diff != "" {
		t.Errorf("target_hosts mismatch (-want +got):\n%s", diff)
	}
	if cfg.Relay.PagerDuty.EventsURL != DefaultEventsURL {
		t.Errorf("events_url: got %q, want %q", cfg.Relay.PagerDuty.EventsURL, DefaultEventsURL)
	}
	if cfg.Relay.PagerDuty.Timeout != DefaultPagerDutyTimeout {
		t.Errorf("pagerduty.timeout: got %v, want %v", cfg.Relay.PagerDuty.Timeout, DefaultPagerDutyTimeout)
	}
	if cfg.Relay.History.TTL != DefaultHistoryTTL {
		t.Errorf("history.ttl: got %v, want %v", cfg.Relay.History.TTL, DefaultHistoryTTL)
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Relay.PagerDuty.RoutingKeyEnv != DefaultRoutingKeyEnv {
		t.Errorf("routing_key_env: got %q, want %q", cfg.Relay.PagerDuty.RoutingKeyEnv, DefaultRoutingKeyEnv)
	}
}

func TestLoad_FullRelay(t *testing.T) {
	p := writeConfig(t, `relay:
  http_port: 8081
  log_level: debug
  target_hosts: [web, db]
  pagerduty:
    routing_key_env: MY_ROUTING_KEY
    events_url: https://events.eu.pagerduty.com/v2/enqueue
    timeout: 3s
  auth:
    mode: apikey
    key_env: MY_SECRET
    header: X-Relay-Key
  history:
    ttl: 10m
`)
	t.Setenv("MY_ROUTING_KEY", "rk-123")
	t.Setenv("MY_SECRET", "s3cret")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := cfg.Relay
	if r.HTTPPort != 8081 {
		t.Errorf("http_port: got %d, want 8081", r.HTTPPort)
	}
	if diff := cmp.Diff(types.HostSet{"web", "db"}, r.TargetHosts); diff != "" {
		t.Errorf("target_hosts mismatch (-want +got):\n%s", diff)
	}
	if k := r.PagerDuty.RoutingKey(); k != "rk-123" {
		t.Errorf("RoutingKey(): got %q, want rk-123", k)
	}
	if r.PagerDuty.Timeout != 3*time.Second {
		t.Errorf("pagerduty.timeout: got %v, want 3s", r.PagerDuty.Timeout)
	}
	if r.Auth.Key() != "s3cret" {
		t.Errorf("Auth.Key(): got %q, want s3cret", r.Auth.Key())
	}
	if h := r.Auth.EffectiveHeader(); h != "X-Relay-Key" {
		t.Errorf("EffectiveHeader: got %q, want X-Relay-Key", h)
	}
	if r.History.TTL != 10*time.Minute {
		t.Errorf("history.ttl: got %v, want 10m", r.History.TTL)
	}
	if r.Level().String() != "DEBUG" {
		t.Errorf("Level(): got %v, want DEBUG", r.Level())
	}
}

func TestLoad_DefaultHeader(t *testing.T) {
	p := writeConfig(t, `relay:
  auth:
    mode: apikey
    key_env: K
`)
	t.Setenv("K", "secret")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h := cfg.Relay.Auth.EffectiveHeader(); h != DefaultAuthHeader {
		t.Errorf("EffectiveHeader: got %q, want %q", h, DefaultAuthHeader)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"port out of range": "relay:\n  http_port: 70000\n",
		"unknown log level": "relay:\n  log_level: verbose\n",
		"empty hosts":       "relay:\n  target_hosts: []\n",
		"blank host":        "relay:\n  target_hosts: [\"web\", \" \"]\n",
		"relative url":      "relay:\n  pagerduty:\n    events_url: /v2/enqueue\n",
		"zero timeout":      "relay:\n  pagerduty:\n    timeout: 0s\n",
		"unknown auth mode": "relay:\n  auth:\n    mode: oauth2\n",
		"apikey no env":     "relay:\n  auth:\n    mode: apikey\n",
		"negative ttl":      "relay:\n  history:\n    ttl: -1m\n",
		"zero ttl":          "relay:\n  history:\n    ttl: 0s\n",
		"bad yaml":          "relay: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_APIKeySecretUnset(t *testing.T) {
	p := writeConfig(t, "relay:\n  auth:\n    mode: apikey\n    key_env: HOSTPAGER_TEST_UNSET_SECRET\n")
	t.Setenv("HOSTPAGER_TEST_UNSET_SECRET", "")

	_, err := Load(p)
	if err == nil {
		t.Fatal("expected error for apikey mode with an empty secret, got nil")
	}
	if !strings.Contains(err.Error(), "HOSTPAGER_TEST_UNSET_SECRET") {
		t.Errorf("error should name the variable: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/relay.yaml"); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	p := writeConfig(t, "relay:\n  target_hosts: [alpha]\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func(c *Config) {
			select {
			case got <- c:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(p, []byte("relay:\n  target_hosts: [beta]\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case c := <-got:
		if diff := cmp.Diff(types.HostSet{"beta"}, c.Relay.TargetHosts); diff != "" {
			t.Errorf("reloaded target_hosts mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("onChange was not called within 5s")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v, want nil", err)
	}
}

func TestWatch_AtomicSaveAndUnchangedHosts(t *testing.T) {
	p := writeConfig(t, "relay:\n  target_hosts: [alpha]\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan types.HostSet, 4)
	go func() {
		_ = Watch(ctx, p, func(c *Config) { got <- c.Relay.TargetHosts })
	}()
	time.Sleep(100 * time.Millisecond)

	// Same hosts, different log level: no callback.
	if err := os.WriteFile(p, []byte("relay:\n  log_level: debug\n  target_hosts: [alpha]\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	// Invalid config: logged and skipped.
	time.Sleep(300 * time.Millisecond)
	if err := os.WriteFile(p, []byte("relay:\n  target_hosts: ['  ']\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	// Atomic save: write a temp file and rename it over the config.
	tmp := filepath.Join(filepath.Dir(p), ".relay.yaml.tmp")
	if err := os.WriteFile(tmp, []byte("relay:\n  target_hosts: [gamma, delta]\n"), 0o600); err != nil {
		t.Fatalf("write temp: %v", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		t.Fatalf("rename: %v", err)
	}

	select {
	case hosts := <-got:
		if diff := cmp.Diff(types.HostSet{"gamma", "delta"}, hosts); diff != "" {
			t.Errorf("first change mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("onChange was not called within 5s")
	}
}

func TestWatch_MissingFile(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), func(*Config) {})
	if err == nil {
		t.Fatal("Watch on a missing file: got nil error")
	}
}
