package notification

import (
	"github.com/keygate-io/keygate/internal/application/verification"
	"github.com/keygate-io/keygate/internal/domain/shared/events"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

// LogSink writes every verification outcome to the structured log.
type LogSink struct {
	logger logger.Interface
}

// NewLogSink creates a new log sink instance
func NewLogSink(logger logger.Interface) *LogSink {
	return &LogSink{logger: logger}
}

// Handle logs the audit event at a level matching its severity
func (s *LogSink) Handle(event events.DomainEvent) error {
	audit, ok := event.(*verification.AuditEvent)
	if !ok {
		return nil
	}

	fields := []interface{}{
		"outcome", string(audit.Outcome),
		"message", audit.Message,
		"ip", audit.IP,
	}
	if audit.HWID != "" {
		fields = append(fields, "hwid", audit.HWID)
	}
	if audit.Product != "" {
		fields = append(fields, "product", audit.Product)
	}
	if audit.Country != "" {
		fields = append(fields, "country", audit.Country)
	}
	if audit.LicenseSID != "" {
		fields = append(fields, "license_sid", audit.LicenseSID, "clientname", audit.Clientname)
	}

	switch audit.Severity {
	case verification.SeverityError:
		s.logger.Errorw("verification outcome", fields...)
	case verification.SeverityWarning:
		s.logger.Warnw("verification outcome", fields...)
	default:
		s.logger.Infow("verification outcome", fields...)
	}
	return nil
}

// CanHandle checks if this handler can handle the given event type
func (s *LogSink) CanHandle(eventType string) bool {
	return eventType == verification.EventTypeVerification
}
