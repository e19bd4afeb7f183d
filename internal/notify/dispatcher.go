package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/taskboard/internal/settings"
)

// sendTimeout bounds a single destination call so one unreachable
// endpoint cannot stall the whole invocation.
const sendTimeout = 10 * time.Second

// Dispatcher fans a rendered message out to the configured
// destinations and reports which ones accepted it.
type Dispatcher interface {
	// SendAll delivers the payload to every destination in snap, in
	// list order, and returns the destinations that succeeded in
	// attempt order. A disabled flag or empty destination list yields
	// a nil result with no outbound calls.
	SendAll(ctx context.Context, subject, payload string, snap settings.Snapshot) []string
}

// webhookPayload is the JSON body POSTed to each destination URL.
type webhookPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// WebhookDispatcher delivers messages as JSON POSTs to webhook URLs.
// Destination failures are isolated: a failed URL is logged, omitted
// from the result, and does not stop the remaining destinations.
type WebhookDispatcher struct {
	client *http.Client
	log    zerolog.Logger
}

// NewWebhookDispatcher returns a dispatcher with a default HTTP client.
func NewWebhookDispatcher(log zerolog.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		client: &http.Client{Timeout: sendTimeout},
		log:    log,
	}
}

func (d *WebhookDispatcher) SendAll(ctx context.Context, subject, payload string, snap settings.Snapshot) []string {
	if !snap.NotificationsEnabled || len(snap.Destinations) == 0 {
		return nil
	}

	var delivered []string
	for _, dest := range snap.Destinations {
		if err := d.sendOne(ctx, dest, subject, payload); err != nil {
			d.log.Warn().Str("destination", dest).Err(err).Msg("notification delivery failed")
			continue
		}
		d.log.Debug().Str("destination", dest).Str("subject", subject).Msg("notification delivered")
		delivered = append(delivered, dest)
	}
	return delivered
}

func (d *WebhookDispatcher) sendOne(ctx context.Context, dest, subject, payload string) error {
	body, err := json.Marshal(webhookPayload{Title: subject, Message: payload})
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, dest, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "taskboard/1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("destination returned HTTP %d", resp.StatusCode)
	}
	return nil
}
