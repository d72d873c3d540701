package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bcsync/internal/config"
	"bcsync/internal/events"
	"bcsync/internal/logger"
)

// Notifier pings the storefront webhook so it can refresh its caches for a
// changed product.
type Notifier struct {
	config     *config.Config
	logger     *logger.Logger
	httpClient *http.Client
}

func New(cfg *config.Config, logger *logger.Logger) *Notifier {
	return &Notifier{
		config: cfg,
		logger: logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (n *Notifier) NotifyStorefront(event events.Event) error {
	if n.config.StorefrontWebhookURL == "" {
		n.logger.Debug("No storefront webhook configured, dropping %s for %s", event.Type, event.SKU)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	resp, err := n.httpClient.Post(n.config.StorefrontWebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to call storefront webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("storefront webhook failed: %d - %s", resp.StatusCode, string(body))
	}

	return nil
}
