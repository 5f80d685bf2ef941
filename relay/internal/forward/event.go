package forward

import (
	"strings"
	"time"
)

// Defaults applied to fields the webhook caller leaves out.
const (
	DefaultAlertType = "error"
	DefaultTitle     = "Datadog Alert"
	DefaultBody      = "No description provided"
)

// Alert is the JSON body Datadog posts to the relay's /webhook route.
// Optional fields are pointers so an explicit empty string can be told apart
// from an omitted field.
type Alert struct {
	Hostname  string  `json:"hostname"`
	AlertType *string `json:"alert_type,omitempty"`
	Title     *string `json:"title,omitempty"`
	Body      *string `json:"body,omitempty"`
}

// Event is a PagerDuty Events API v2 request.
type Event struct {
	RoutingKey  string  `json:"routing_key"`
	EventAction string  `json:"event_action"`
	DedupKey    string  `json:"dedup_key,omitempty"`
	Payload     Payload `json:"payload"`
}

// Payload is the payload object of an Events API v2 trigger.
type Payload struct {
	Summary       string         `json:"summary"`
	Source        string         `json:"source"`
	Severity      string         `json:"severity"`
	Timestamp     string         `json:"timestamp"`
	CustomDetails map[string]any `json:"custom_details,omitempty"`
}

// Severity maps a Datadog alert_type onto a PagerDuty severity.
func Severity(alertType string) string {
	switch alertType {
	case "error", "warning", "info":
		return alertType
	default:
		return "error"
	}
}

// BuildEvent constructs the trigger event for a.
func BuildEvent(routingKey string, a Alert, now time.Time) Event {
	hostname := strings.ToUpper(a.Hostname)
	alertType := valueOr(a.AlertType, DefaultAlertType)
	title := valueOr(a.Title, DefaultTitle)
	body := valueOr(a.Body, DefaultBody)

	return Event{
		RoutingKey:  routingKey,
		EventAction: "trigger",
		Payload: Payload{
			Summary:   hostname + ": " + title,
			Source:    hostname,
			Severity:  Severity(alertType),
			Timestamp: now.UTC().Format(time.RFC3339),
			CustomDetails: map[string]any{
				"body":       body,
				"alert_type": alertType,
				"hostname":   hostname,
			},
		},
	}
}

func valueOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
