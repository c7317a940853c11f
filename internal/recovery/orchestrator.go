package recovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/events"
)

// AccountService issues one-time codes for password recovery.
type AccountService interface {
	RequestRecovery(ctx context.Context, req domain.RecoveryRequest) (domain.ServiceReply, error)
}

// Sink displays transient messages to the user. Delivery is best-effort.
type Sink interface {
	Notify(kind domain.NotificationKind, message string)
}

// Navigator moves the user to the reset-password stage.
type Navigator interface {
	Handoff(ctx context.Context, handoff domain.Handoff) error
}

// Options configures an Orchestrator.
type Options struct {
	// ID identifies the workflow instance in events and logs.
	ID        string
	Service   AccountService
	Sink      Sink
	Navigator Navigator
	Events    events.Dispatcher
	Logger    *zap.Logger
}

// Orchestrator drives Transition and executes its effects.
// One instance admits at most one in-flight request.
type Orchestrator struct {
	id        string
	service   AccountService
	sink      Sink
	navigator Navigator
	events    events.Dispatcher
	logger    *zap.Logger

	mu    sync.Mutex
	state State
}

// New builds an orchestrator in the idle state.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &Orchestrator{
		id:        id,
		service:   opts.Service,
		sink:      opts.Sink,
		navigator: opts.Navigator,
		events:    opts.Events,
		logger:    logger.With(zap.String("workflow_id", id)),
		state:     State{Phase: PhaseIdle},
	}
}

// ID returns the workflow instance id.
func (o *Orchestrator) ID() string {
	return o.id
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs one submission attempt to completion.
//
// It returns ErrInFlight when another submission is pending, a *ValidationError
// when raw is not a usable email, and otherwise the terminal outcome. Rejections
// and transport failures are outcomes, not errors.
func (o *Orchestrator) Submit(ctx context.Context, raw string) (domain.RecoveryOutcome, error) {
	prev, next, effects := o.step(Submit{Raw: raw})
	if prev.Phase == PhaseSubmitting {
		o.logger.Debug("submission ignored; request in flight")
		return domain.RecoveryOutcome{}, ErrInFlight
	}

	outcome, cause := o.apply(ctx, effects)
	if next.Phase == PhaseIdle {
		var verr *ValidationError
		if errors.As(cause, &verr) {
			o.publish(ctx, events.EventRecoveryValidationFailed, events.RecoveryPayload{Reason: string(verr.Reason)})
			return domain.RecoveryOutcome{}, verr
		}
		return domain.RecoveryOutcome{}, cause
	}

	if outcome == nil {
		return domain.RecoveryOutcome{}, fmt.Errorf("workflow left %s without outcome", next.Phase)
	}
	return *outcome, nil
}

// Reset returns a completed workflow to idle. It reports false while a request is in flight.
func (o *Orchestrator) Reset() bool {
	prev, _, _ := o.step(Reset{})
	return prev.Phase != PhaseSubmitting
}

func (o *Orchestrator) step(ev Event) (prev, next State, effects []Effect) {
	o.mu.Lock()
	defer o.mu.Unlock()
	prev = o.state
	next, effects = Transition(prev, ev)
	o.state = next
	return prev, next, effects
}

// apply executes effects in order. It returns the terminal outcome reached by a
// SendRequest effect and the cause of the last error notification.
func (o *Orchestrator) apply(ctx context.Context, effects []Effect) (*domain.RecoveryOutcome, error) {
	var (
		outcome *domain.RecoveryOutcome
		cause   error
	)
	for _, eff := range effects {
		switch e := eff.(type) {
		case SendRequest:
			out, err := o.send(ctx, e.Request)
			outcome = out
			if err != nil {
				cause = err
			}
		case Notify:
			if o.sink != nil {
				o.sink.Notify(e.Notification.Kind, e.Notification.Message)
			}
			if e.Cause != nil {
				cause = e.Cause
			}
		case Handoff:
			if o.navigator == nil {
				continue
			}
			if err := o.navigator.Handoff(ctx, e.Handoff); err != nil {
				o.logger.Error("reset hand-off failed", zap.Error(err))
			}
		}
	}
	return outcome, cause
}

func (o *Orchestrator) send(ctx context.Context, req domain.RecoveryRequest) (*domain.RecoveryOutcome, error) {
	started := time.Now()
	reply, err := o.call(ctx, req)

	var ev Event = Replied{Reply: reply}
	if err != nil {
		ev = Failed{Err: err}
	}
	_, next, effects := o.step(ev)
	_, cause := o.apply(ctx, effects)

	if next.Outcome != nil {
		o.observe(ctx, *next.Outcome, req.Email, time.Since(started), cause)
	}
	return next.Outcome, cause
}

// call shields the state machine from a panicking service implementation.
func (o *Orchestrator) call(ctx context.Context, req domain.RecoveryRequest) (reply domain.ServiceReply, err error) {
	if o.service == nil {
		return reply, &TransportError{Err: errors.New("account service not configured")}
	}
	defer func() {
		if r := recover(); r != nil {
			err = &TransportError{Err: fmt.Errorf("account service panic: %v", r)}
		}
	}()
	return o.service.RequestRecovery(ctx, req)
}

func (o *Orchestrator) observe(ctx context.Context, out domain.RecoveryOutcome, email string, took time.Duration, cause error) {
	payload := events.RecoveryPayload{
		EmailDomain: emailDomain(email),
		Message:     out.Message,
		InlineOTP:   out.OTP != nil,
		Duration:    took,
	}
	var te *TransportError
	if errors.As(cause, &te) {
		payload.HTTPStatus = te.Status
	}

	switch out.Kind {
	case domain.OutcomeAccepted:
		o.publish(ctx, events.EventRecoveryAccepted, payload)
	case domain.OutcomeRejected:
		o.publish(ctx, events.EventRecoveryRejected, payload)
	case domain.OutcomeTransportError:
		o.publish(ctx, events.EventRecoveryTransportFailed, payload)
	}
}

func (o *Orchestrator) publish(ctx context.Context, typ events.EventType, payload events.RecoveryPayload) {
	if o.events == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		WorkflowID: o.id,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.logger.Warn("publish recovery event", zap.String("event_type", string(typ)), zap.Error(err))
	}
}

func emailDomain(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
