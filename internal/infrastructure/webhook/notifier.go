// Package webhook delivers run completion notifications.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felixgeelhaar/weaver/pkg/domain/run"
)

// Endpoint describes where completed runs are announced.
type Endpoint struct {
	URL        string
	Secret     string
	MaxRetries int
	RetryDelay time.Duration
}

// Notifier posts run outcomes to a webhook endpoint.
type Notifier struct {
	endpoint Endpoint
	client   *http.Client
}

// NewNotifier creates a notifier for the given endpoint.
func NewNotifier(endpoint Endpoint) *Notifier {
	return &Notifier{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Payload is the JSON body sent to the webhook endpoint.
type Payload struct {
	EventType string       `json:"event_type"`
	Timestamp time.Time    `json:"timestamp"`
	Outcome   *run.Outcome `json:"outcome"`
}

// NotifyOutcome announces a finished run. Delivery failures are retried
// with linear backoff; the last error is returned when every attempt
// fails.
func (n *Notifier) NotifyOutcome(ctx context.Context, outcome *run.Outcome) error {
	if n.endpoint.URL == "" {
		return nil
	}

	payload := Payload{
		EventType: "weave.completed",
		Timestamp: time.Now(),
		Outcome:   outcome,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	maxRetries := n.endpoint.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelay := n.endpoint.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := n.send(ctx, body); err != nil {
			lastErr = err
			if attempt < maxRetries {
				time.Sleep(retryDelay * time.Duration(attempt)) // linear backoff
			}
			continue
		}
		return nil
	}
	return lastErr
}

func (n *Notifier) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Weaver-Webhook/1.0")

	if n.endpoint.Secret != "" {
		req.Header.Set("X-Weaver-Signature", sign(body, n.endpoint.Secret))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close after drain
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// sign computes HMAC-SHA256 of the payload using the secret.
func sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
