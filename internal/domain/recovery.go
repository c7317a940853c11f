package domain

// RecoveryRequest is the payload sent to the account recovery service.
type RecoveryRequest struct {
	Email string `json:"email"`
}

// OutcomeKind tags a RecoveryOutcome.
type OutcomeKind string

const (
	OutcomeAccepted       OutcomeKind = "accepted"
	OutcomeRejected       OutcomeKind = "rejected"
	OutcomeTransportError OutcomeKind = "transport_error"
)

// RecoveryOutcome is the terminal result of one submission.
// Email and OTP are set only for OutcomeAccepted; Message only for the failure kinds.
type RecoveryOutcome struct {
	Kind    OutcomeKind
	Email   string
	OTP     *string
	Message string
}

// Accepted reports whether the service acknowledged the request.
func (o RecoveryOutcome) Accepted() bool {
	return o.Kind == OutcomeAccepted
}

// Handoff is the bundle forwarded to the reset-password stage.
type Handoff struct {
	Email string  `json:"email"`
	OTP   *string `json:"otp,omitempty"`
}

// NotificationKind is the tone of a user-facing message.
type NotificationKind string

const (
	NotificationSuccess NotificationKind = "success"
	NotificationError   NotificationKind = "error"
)

// Notification is a transient user-facing message.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// ServiceReply is a decoded response body from the account recovery service.
// Status is nil when the payload carries no status flag, Success likewise.
type ServiceReply struct {
	Status  *int
	Success *bool
	Message string
	DataOTP string
	OTP     string
}
