package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-blog-client/pkg/httpclient"
)

// Headers set on every webhook delivery so receivers can dedupe and route without
// parsing the body.
const (
	headerEventID     = "X-Blog-Event-Id"
	headerEventAction = "X-Blog-Event-Action"
)

// httpPublisher posts events as JSON to a webhook.
type httpPublisher struct {
	id      string
	method  string
	headers map[string]string
	client  httpclient.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	return &httpPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		headers: cfg.HTTP.Headers,
		client:  httpclient.NewRestyClient(cfg.HTTP.URL, time.Duration(cfg.HTTP.TimeoutSeconds)*time.Second),
		log:     ensureLogger(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	headers := make(map[string]string, len(h.headers)+2)
	for k, v := range h.headers {
		headers[k] = v
	}
	headers[headerEventID] = evt.ID
	headers[headerEventAction] = evt.Action

	resp, err := h.client.Do(ctx, httpclient.Request{
		Method:  h.method,
		Body:    evt,
		Headers: headers,
	})
	if err != nil {
		h.log.ErrorObj("webhook delivery failed", "publisher_http_error", map[string]any{
			"publisher_id": h.id,
			"error":        err.Error(),
		})
		return fmt.Errorf("http request: %w", err)
	}
	if status := resp.StatusCode(); status < 200 || status > 299 {
		return fmt.Errorf("http response status %d: %s", status, bodySnippet(resp.Body()))
	}
	h.log.DebugObj("webhook delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"event_id":     evt.ID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func bodySnippet(body []byte) string {
	const limit = 256
	if len(body) > limit {
		body = body[:limit]
	}
	return strings.TrimSpace(string(body))
}
