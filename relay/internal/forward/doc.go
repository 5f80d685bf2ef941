// Package forward turns a Datadog webhook alert into a PagerDuty Events API v2
// trigger event and delivers it.
//
// BuildEvent maps the alert onto the event: the hostname is uppercased, the
// summary is "<HOSTNAME>: <title>", and alert_type selects the severity
// (error | warning | info, anything else falls back to error).
// Forwarder.Forward posts the event and reports the raw PagerDuty response;
// only HTTP 202 counts as accepted.
package forward
