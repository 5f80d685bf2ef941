// Package config loads the hostpager-relay configuration from the `relay:`
// section of a YAML file.
//
// Config fields:
//   - HTTPPort           : port for the webhook, health and metrics routes (default 5000)
//   - LogLevel           : debug | info | warn | error (default info)
//   - TargetHosts        : host-name substrings to forward (default MOVITAUTO, MOVEITXFR, PYXSFTP)
//   - PagerDuty.RoutingKeyEnv: environment variable holding the routing key
//     (default PAGERDUTY_ROUTING_KEY)
//   - PagerDuty.EventsURL: Events API v2 enqueue endpoint
//   - PagerDuty.Timeout  : per-request timeout (default 10s)
//   - Auth.Mode          : "apikey" or "none"
//   - Auth.KeyEnv        : environment variable holding the shared secret
//   - Auth.Header        : header carrying the secret (default "X-Hostpager-Key")
//   - History.TTL        : how long delivery outcomes stay listed (default 1h)
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) reloads the file on change so the target host
// list can be edited without a restart.
package config
