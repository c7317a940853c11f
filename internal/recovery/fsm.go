package recovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pronet/recovery-portal/internal/domain"
)

const (
	fallbackRejectedMessage  = "Failed to send reset link"
	fallbackTransportMessage = "Failed to send reset link. Please try again."
	successMessage           = "Password reset code sent! Check your email."
)

// Phase is the coarse position of the workflow.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseCompleted:
		return "completed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the workflow state. Email is the normalized address of the in-flight
// request; Outcome is set only in PhaseCompleted.
type State struct {
	Phase   Phase
	Email   string
	Outcome *domain.RecoveryOutcome
}

// Event drives Transition.
type Event interface {
	event()
}

// Submit is a user submission carrying the raw form value.
type Submit struct {
	Raw string
}

// Replied carries a decoded service response.
type Replied struct {
	Reply domain.ServiceReply
}

// Failed carries a transport failure.
type Failed struct {
	Err error
}

// Reset returns a completed workflow to idle.
type Reset struct{}

func (Submit) event()  {}
func (Replied) event() {}
func (Failed) event()  {}
func (Reset) event()   {}

// Effect is work the driver performs after a transition.
type Effect interface {
	effect()
}

// SendRequest asks the driver to call the account recovery service.
type SendRequest struct {
	Request domain.RecoveryRequest
}

// Notify asks the driver to push a message to the sink. Cause is the error
// behind an error notification and is meant for diagnostics only.
type Notify struct {
	Notification domain.Notification
	Cause        error
}

// Handoff asks the driver to forward the bundle to the reset-password stage.
type Handoff struct {
	Handoff domain.Handoff
}

func (SendRequest) effect() {}
func (Notify) effect()      {}
func (Handoff) effect()     {}

// Transition is the pure step function of the workflow.
func Transition(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case Submit:
		return onSubmit(s, e)
	case Replied:
		if s.Phase != PhaseSubmitting {
			return s, nil
		}
		return onReply(s, e.Reply)
	case Failed:
		if s.Phase != PhaseSubmitting {
			return s, nil
		}
		return onFailure(s, e.Err)
	case Reset:
		if s.Phase == PhaseSubmitting {
			return s, nil
		}
		return State{Phase: PhaseIdle}, nil
	default:
		return s, nil
	}
}

func onSubmit(s State, e Submit) (State, []Effect) {
	if s.Phase == PhaseSubmitting {
		return s, nil
	}
	email, err := Validate(e.Raw)
	if err != nil {
		return State{Phase: PhaseIdle}, []Effect{errorNotice(err.Error(), err)}
	}
	return State{Phase: PhaseSubmitting, Email: email}, []Effect{
		SendRequest{Request: domain.RecoveryRequest{Email: email}},
	}
}

func onReply(s State, reply domain.ServiceReply) (State, []Effect) {
	if !ReplySucceeded(reply) {
		msg := strings.TrimSpace(reply.Message)
		if msg == "" {
			msg = fallbackRejectedMessage
		}
		out := domain.RecoveryOutcome{Kind: domain.OutcomeRejected, Message: msg}
		return completed(out), []Effect{errorNotice(msg, &RejectedError{Message: msg})}
	}

	var otp *string
	if code := replyOTP(reply); code != "" {
		otp = &code
	}
	out := domain.RecoveryOutcome{Kind: domain.OutcomeAccepted, Email: s.Email, OTP: otp}

	msg := successMessage
	if otp != nil {
		msg = fmt.Sprintf("%s Your code: %s", msg, *otp)
	}
	return completed(out), []Effect{
		Notify{Notification: domain.Notification{Kind: domain.NotificationSuccess, Message: msg}},
		Handoff{Handoff: domain.Handoff{Email: s.Email, OTP: otp}},
	}
}

func onFailure(_ State, err error) (State, []Effect) {
	msg := fallbackTransportMessage
	var te *TransportError
	if errors.As(err, &te) && strings.TrimSpace(te.Message) != "" {
		msg = strings.TrimSpace(te.Message)
	}
	if te == nil {
		te = &TransportError{Err: err}
	}
	out := domain.RecoveryOutcome{Kind: domain.OutcomeTransportError, Message: msg}
	return completed(out), []Effect{errorNotice(msg, te)}
}

// ReplySucceeded reports whether a service payload carries a success flag:
// status 1, or success true.
func ReplySucceeded(r domain.ServiceReply) bool {
	if r.Status != nil && *r.Status == 1 {
		return true
	}
	return r.Success != nil && *r.Success
}

func replyOTP(r domain.ServiceReply) string {
	if code := strings.TrimSpace(r.DataOTP); code != "" {
		return code
	}
	return strings.TrimSpace(r.OTP)
}

func completed(out domain.RecoveryOutcome) State {
	return State{Phase: PhaseCompleted, Email: out.Email, Outcome: &out}
}

func errorNotice(msg string, cause error) Notify {
	return Notify{
		Notification: domain.Notification{Kind: domain.NotificationError, Message: msg},
		Cause:        cause,
	}
}
