// Package datadog provisions the monitoring side of the alert path: a webhook
// integration pointing at the relay and one CPU monitor per target host that
// notifies that webhook.
package datadog
