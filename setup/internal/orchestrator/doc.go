// Package orchestrator runs the end-to-end configuration of the alert path
// and collects the outcome of each stage into a Report.
//
// Stages run in a fixed order and every stage is attempted, even after an
// earlier one failed:
//
//  1. Discovery: authenticate to Azure and refine the target hosts from VM names.
//     Skipped when no tenant ID is configured.
//  2. Webhook: register the relay as a Datadog webhook.
//  3. Monitors: create one CPU monitor per target host, in order.
//  4. Paging: send a PagerDuty test event.
//  5. Health: probe the relay's health endpoint.
//
// Overall success depends only on stages 2-4; see Report.Success.
package orchestrator
