package datadog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/obsidianstack/hostpager/setup/internal/result"
)

const webhookPath = "/api/v1/integration/webhooks/configuration/webhooks"

// RelayAuthHeader is the header hostpager-relay reads its shared secret from.
const RelayAuthHeader = "X-Hostpager-Key"

// payloadTemplate maps Datadog template variables onto the relay's JSON
// fields. Datadog substitutes the $VARIABLES when it fires the webhook.
const payloadTemplate = `{
  "hostname": "$HOSTNAME",
  "alert_type": "$ALERT_TYPE",
  "title": "$EVENT_TITLE",
  "body": "$EVENT_MSG",
  "alert_id": "$ALERT_ID",
  "date": "$DATE",
  "link": "$LINK",
  "tags": "$TAGS"
}`

type webhookRequest struct {
	Name          string `json:"name"`
	URL           string `json:"url"`
	EncodeAs      string `json:"encode_as"`
	Payload       string `json:"payload"`
	CustomHeaders string `json:"custom_headers,omitempty"`
}

func (c *Client) webhookRequest() webhookRequest {
	w := webhookRequest{
		Name:     c.cfg.WebhookName,
		URL:      c.relay.WebhookURL,
		EncodeAs: "json",
		Payload:  payloadTemplate,
	}
	if c.relay.SharedSecret != "" {
		// custom_headers is itself a JSON document encoded as a string.
		h, _ := json.Marshal(map[string]string{RelayAuthHeader: c.relay.SharedSecret})
		w.CustomHeaders = string(h)
	}
	return w
}

// CreateWebhook registers the relay as a Datadog webhook. A webhook that
// already exists (409) counts as success with a warning.
func (c *Client) CreateWebhook(ctx context.Context) result.Result {
	resp, err := c.post(ctx, webhookPath, c.webhookRequest())
	if err != nil {
		slog.Error("datadog: webhook create failed", "name", c.cfg.WebhookName, "err", err)
		return result.Transport(err, "create webhook %q", c.cfg.WebhookName)
	}

	switch resp.status {
	case http.StatusOK, http.StatusCreated:
		slog.Info("datadog: webhook created", "name", c.cfg.WebhookName, "url", c.relay.WebhookURL)
		return result.Success(resp.status, "webhook %q -> %s", c.cfg.WebhookName, c.relay.WebhookURL)
	case http.StatusConflict:
		slog.Warn("datadog: webhook already exists, leaving it unchanged", "name", c.cfg.WebhookName)
		return result.SuccessWithWarning(resp.status, "webhook %q already exists; its URL was not updated", c.cfg.WebhookName)
	default:
		slog.Error("datadog: webhook create rejected",
			"name", c.cfg.WebhookName,
			"status", resp.status,
			"body", string(resp.body),
		)
		return result.Rejected(resp.status, string(resp.body))
	}
}
