// Package pagerduty verifies a routing key by sending one informational test
// event to the Events API v2.
package pagerduty
