package verification

import (
	"time"

	"github.com/keygate-io/keygate/internal/domain/license"
	"github.com/keygate-io/keygate/internal/domain/shared/events"
)

// EventTypeVerification is the event type every terminal branch emits.
const EventTypeVerification = "verification.outcome"

// Severity classifies an audit event for downstream alerting.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// AuditEvent is the structured outcome event published once per
// verification request. Branches that fail before the license is resolved
// carry no license snapshot.
type AuditEvent struct {
	events.BaseEvent
	Outcome  Outcome  `json:"outcome"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	IP       string   `json:"ip"`
	HWID     string   `json:"hwid,omitempty"`
	Product  string   `json:"product,omitempty"`
	Version  string   `json:"version,omitempty"`
	Country  string   `json:"country,omitempty"`

	// License snapshot, empty until the license is resolved.
	LicenseSID    string `json:"license_sid,omitempty"`
	Clientname    string `json:"clientname,omitempty"`
	DiscordID     string `json:"discord_id,omitempty"`
	TotalRequests uint64 `json:"total_requests,omitempty"`
}

// NewAuditEvent builds an outcome event. lic may be nil for branches that
// reject before license resolution; country is set only by the geo branch.
func NewAuditEvent(
	outcome Outcome,
	message string,
	severity Severity,
	req VerifyRequest,
	lic *license.License,
	country string,
	occurredAt time.Time,
) *AuditEvent {
	e := &AuditEvent{
		BaseEvent: events.BaseEvent{
			EventType:  EventTypeVerification,
			OccurredAt: occurredAt,
		},
		Outcome:  outcome,
		Severity: severity,
		Message:  message,
		IP:       req.IP,
		HWID:     req.HWID,
		Product:  req.ProductName,
		Version:  req.Version,
		Country:  country,
	}
	if lic != nil {
		e.AggregateID = lic.SID()
		e.LicenseSID = lic.SID()
		e.Clientname = lic.Clientname()
		if lic.DiscordID() != nil {
			e.DiscordID = *lic.DiscordID()
		}
		e.TotalRequests = lic.TotalRequests()
	}
	return e
}
