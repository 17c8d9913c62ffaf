package notification

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/keygate-io/keygate/internal/application/verification"
	"github.com/keygate-io/keygate/internal/domain/shared/events"
	sharedConfig "github.com/keygate-io/keygate/internal/shared/config"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

// EmailSink mails error-severity outcomes to the operator. Warnings and
// successes are too frequent to be worth a mailbox.
type EmailSink struct {
	config sharedConfig.EmailConfig
	dialer *gomail.Dialer
	logger logger.Interface
}

// NewEmailSink creates a new email sink instance
func NewEmailSink(config sharedConfig.EmailConfig, logger logger.Interface) *EmailSink {
	return &EmailSink{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		logger: logger,
	}
}

// Handle mails the audit event if it carries error severity
func (s *EmailSink) Handle(event events.DomainEvent) error {
	if !s.config.Enabled {
		return nil
	}
	audit, ok := event.(*verification.AuditEvent)
	if !ok || audit.Severity != verification.SeverityError {
		return nil
	}

	subject := fmt.Sprintf("License alert: %s", audit.Message)
	plainBody := fmt.Sprintf(`%s

Outcome: %s
IP: %s
HWID: %s
Product: %s
Time: %s
`, audit.Message, audit.Outcome, audit.IP, audit.HWID, audit.Product,
		audit.GetOccurredAt().Format("2006-01-02 15:04:05 UTC"))

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.From)
	m.SetHeader("To", s.config.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Warnw("failed to send alert email", "outcome", string(audit.Outcome), "error", err)
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	return nil
}

// CanHandle checks if this handler can handle the given event type
func (s *EmailSink) CanHandle(eventType string) bool {
	return eventType == verification.EventTypeVerification
}
