// Package sink posts structured operational events to an external webhook
// collaborator. Delivery is best-effort; the caller decides what a failure
// means.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"leadmarket_backend/platform/config"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Event is the structured payload the sink accepts.
type Event struct {
	Title    string            `json:"title"`
	Severity Severity          `json:"severity"`
	Fields   map[string]string `json:"fields,omitempty"`
}

type Sink interface {
	Send(ctx context.Context, event Event) error
}

// NoopSink drops events. Used when no sink URL is configured.
type NoopSink struct{}

func (NoopSink) Send(ctx context.Context, event Event) error { return nil }

// WebhookSink posts events as JSON to the configured URL.
type WebhookSink struct {
	url    string
	client *http.Client
}

func New(cfg config.SinkConfig) Sink {
	if !cfg.IsWebhookSinkEnabled() {
		return NoopSink{}
	}
	return &WebhookSink{
		url:    cfg.GetWebhookSinkURL(),
		client: &http.Client{Timeout: cfg.GetWebhookSinkTimeout()},
	}
}

var _ Sink = (*WebhookSink)(nil)
var _ Sink = NoopSink{}

func (s *WebhookSink) Send(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sink send failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sink send failed: status %d: %s", resp.StatusCode, string(data))
	}
	return nil
}
