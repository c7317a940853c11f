package dto

import (
	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/recovery"
)

// ForgotPasswordRequest payload for starting a recovery.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email"`
}

// ResetPasswordRequest payload for completing a recovery.
type ResetPasswordRequest struct {
	Email           string `json:"email" form:"email"`
	OTP             string `json:"otp" form:"otp"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// OutcomeResponse renders a RecoveryOutcome.
type OutcomeResponse struct {
	Kind    domain.OutcomeKind `json:"kind"`
	Email   string             `json:"email,omitempty"`
	OTP     *string            `json:"otp,omitempty"`
	Message string             `json:"message,omitempty"`
}

// StateResponse renders the workflow state of a session.
type StateResponse struct {
	State   string           `json:"state"`
	Outcome *OutcomeResponse `json:"outcome,omitempty"`
}

// SubmitResponse is returned for an accepted submission.
type SubmitResponse struct {
	StateResponse
	Notifications []domain.Notification `json:"notifications"`
	Next          string                `json:"next,omitempty"`
}

// NewOutcomeResponse converts the domain outcome.
func NewOutcomeResponse(out domain.RecoveryOutcome) *OutcomeResponse {
	return &OutcomeResponse{
		Kind:    out.Kind,
		Email:   out.Email,
		OTP:     out.OTP,
		Message: out.Message,
	}
}

// NewStateResponse converts a workflow state.
func NewStateResponse(s recovery.State) StateResponse {
	resp := StateResponse{State: s.Phase.String()}
	if s.Outcome != nil {
		resp.Outcome = NewOutcomeResponse(*s.Outcome)
	}
	return resp
}
