// Package webhook delivers analysis completion events to a configured
// endpoint, signed with HMAC-SHA256 when a secret is set.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/siteintel/config"
	"github.com/use-agent/siteintel/models"
)

// Event types.
const (
	EventCompleted = "analysis.completed"
	EventBlocked   = "analysis.blocked"
	EventFailed    = "analysis.failed"
)

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type       string                 `json:"type"`
	AnalysisID string                 `json:"analysis_id"`
	Timestamp  int64                  `json:"timestamp"`
	Data       *models.AnalysisResult `json:"data"`
}

// Notifier sends one event per finished run. The zero URL disables it;
// construct through New so callers can hold a nil *Notifier safely.
type Notifier struct {
	url    string
	secret string
}

// New returns a Notifier, or nil when no endpoint is configured.
func New(cfg config.WebhookConfig) *Notifier {
	if cfg.URL == "" {
		return nil
	}
	return &Notifier{url: cfg.URL, secret: cfg.Secret}
}

// NotifyAsync derives the event type from the run status and delivers it
// in the background.
func (n *Notifier) NotifyAsync(result *models.AnalysisResult) {
	eventType := EventCompleted
	switch result.Status {
	case models.StatusBlocked:
		eventType = EventBlocked
	case models.StatusError:
		eventType = EventFailed
	}
	DeliverAsync(n.url, n.secret, &Event{
		Type:       eventType,
		AnalysisID: result.ID,
		Timestamp:  time.Now().Unix(),
		Data:       result,
	})
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-SiteIntel-Signature: sha256=<hex>
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SiteIntel-Webhook/1.0")

	if secret != "" {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		sig := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("X-SiteIntel-Signature", "sha256="+sig)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// DeliverAsync sends a webhook event asynchronously with up to 3 retries.
// Retry intervals: 1s, 5s, 30s.
func DeliverAsync(url, secret string, event *Event) {
	go func() {
		delays := []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}
		for attempt, delay := range delays {
			if delay > 0 {
				time.Sleep(delay)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := Deliver(ctx, url, secret, event)
			cancel()
			if err == nil {
				slog.Info("webhook delivered",
					"url", url,
					"event", event.Type,
					"analysis_id", event.AnalysisID,
					"attempt", attempt+1,
				)
				return
			}
			slog.Warn("webhook delivery failed",
				"url", url,
				"event", event.Type,
				"analysis_id", event.AnalysisID,
				"attempt", attempt+1,
				"error", err,
			)
		}
		slog.Error("webhook delivery exhausted all retries",
			"url", url,
			"event", event.Type,
			"analysis_id", event.AnalysisID,
		)
	}()
}
