// Package api implements the HTTP surface of hostpager-relay.
//
// New(...) returns a Handler that serves:
//
//	POST /webhook           : Datadog alert in, PagerDuty trigger out
//	GET  /health            : liveness: {"status":"healthy","timestamp":...}
//	GET  /api/v1/deliveries : last forwarding outcome per host (within the history TTL)
//	GET  /metrics           : Prometheus exposition of relay counters
//
// /webhook answers 200 with status "ignored" or "success", and 500 with status
// "failed" (PagerDuty rejected the event) or "error" (bad body, transport
// failure). Other methods get 405. The target host list can be swapped at
// runtime with SetTargets; the config watcher does this on reload.
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
