package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Dispatcher persists notifications and delivers them to live browsers and
// an optional webhook.
type Dispatcher struct {
	store      *Store
	hub        *Hub
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewDispatcher creates a Dispatcher. hub may be nil; an empty webhookURL
// disables webhook delivery.
func NewDispatcher(store *Store, hub *Hub, webhookURL string, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		store:      store,
		hub:        hub,
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Send stores n and pushes it out. Delivery failures are logged and do not
// fail the call.
func (d *Dispatcher) Send(ctx context.Context, n *Notification) error {
	if err := d.store.Create(ctx, n); err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}

	if d.hub != nil {
		d.hub.Publish(*n)
	}

	if d.webhookURL != "" {
		payload, err := json.Marshal(n)
		if err != nil {
			d.logger.Error("marshalling webhook payload", zap.Error(err))
			return nil
		}
		if err := d.SendWebhook(ctx, d.webhookURL, payload); err != nil {
			d.logger.Warn("notification webhook failed",
				zap.String("notification_id", n.ID),
				zap.Error(err))
		}
	}
	return nil
}

// SendWebhook POSTs payload to the given URL.
func (d *Dispatcher) SendWebhook(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
