package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRecoveryValidationFailed EventType = "recovery_validation_failed"
	EventRecoveryAccepted         EventType = "recovery_accepted"
	EventRecoveryRejected         EventType = "recovery_rejected"
	EventRecoveryTransportFailed  EventType = "recovery_transport_failed"
)

// Event represents a workflow event emitted by the recovery orchestrator.
type Event struct {
	ID         string          `json:"id"`
	Type       EventType       `json:"type"`
	WorkflowID string          `json:"workflow_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    RecoveryPayload `json:"payload"`
}

// RecoveryPayload carries diagnostics for one attempt. It never holds the
// full email address or the one-time code.
type RecoveryPayload struct {
	Reason      string        `json:"reason,omitempty"`
	EmailDomain string        `json:"email_domain,omitempty"`
	Message     string        `json:"message,omitempty"`
	InlineOTP   bool          `json:"inline_otp,omitempty"`
	HTTPStatus  int           `json:"http_status,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}
