package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/keygate-io/keygate/internal/application/verification"
	"github.com/keygate-io/keygate/internal/domain/shared/events"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

const webhookTimeout = 5 * time.Second

// WebhookSink forwards verification outcomes to an external webhook as JSON.
// A sink with an empty URL accepts events and drops them.
type WebhookSink struct {
	url        string
	httpClient *http.Client
	logger     logger.Interface
}

// NewWebhookSink creates a new webhook sink instance
func NewWebhookSink(url string, logger logger.Interface) *WebhookSink {
	return &WebhookSink{
		url:        url,
		httpClient: &http.Client{Timeout: webhookTimeout},
		logger:     logger,
	}
}

// Handle posts the audit event to the configured webhook
func (s *WebhookSink) Handle(event events.DomainEvent) error {
	if s.url == "" {
		return nil
	}
	audit, ok := event.(*verification.AuditEvent)
	if !ok {
		return nil
	}

	body, err := json.Marshal(audit)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	resp, err := s.httpClient.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.Warnw("failed to deliver webhook", "outcome", string(audit.Outcome), "error", err)
		return fmt.Errorf("failed to deliver webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		s.logger.Warnw("webhook rejected event", "status", resp.StatusCode, "outcome", string(audit.Outcome))
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// CanHandle checks if this handler can handle the given event type
func (s *WebhookSink) CanHandle(eventType string) bool {
	return eventType == verification.EventTypeVerification
}
