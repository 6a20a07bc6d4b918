package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/synclaro/website-api/internal/logger"
)

// Webhook event types sent to the workflow automation.
const (
	EventApplicationSubmitted = "application_submitted"
	EventAppointmentBooked    = "appointment_booked"
)

// NewSafeHTTPClient returns a client that refuses private, loopback and
// link-local destinations, including after DNS resolution.
func NewSafeHTTPClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return safeurl.Client(config).Client
}

// WebhookNotifier posts JSON events to the workflow automation endpoint.
// Callers treat every failure as non-fatal.
type WebhookNotifier struct {
	logger *logger.Logger
	url    string
	client *http.Client
	now    func() time.Time
}

func NewWebhookNotifier(log *logger.Logger, url string, client *http.Client) *WebhookNotifier {
	return &WebhookNotifier{logger: log, url: url, client: client, now: time.Now}
}

// Enabled reports whether a webhook URL is configured.
func (n *WebhookNotifier) Enabled() bool {
	return n != nil && n.url != ""
}

// Notify sends fields together with event_type and timestamp.
func (n *WebhookNotifier) Notify(ctx context.Context, eventType string, fields map[string]any) error {
	payload := make(map[string]any, len(fields)+2)
	maps.Copy(payload, fields)
	payload["event_type"] = eventType
	payload["timestamp"] = n.now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}
	return n.post(ctx, body)
}

// Forward relays an already encoded JSON document unchanged.
func (n *WebhookNotifier) Forward(ctx context.Context, body json.RawMessage) error {
	return n.post(ctx, body)
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	if !n.Enabled() {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.logger.Debug("Webhook delivered", logger.Action("webhook"), logger.HTTPStatus(resp.StatusCode))
	return nil
}
