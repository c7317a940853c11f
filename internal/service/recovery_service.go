package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/config"
	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/events"
	"github.com/pronet/recovery-portal/internal/recovery"
	"github.com/pronet/recovery-portal/internal/repository"
	"github.com/pronet/recovery-portal/pkg/util/errorutil"
)

const (
	minPasswordLength = 8
	sinkWriteTimeout  = 2 * time.Second
	resetSuccessText  = "Password reset successful. Please log in with your new password."
	resetFallbackText = "Failed to reset password"
)

// AccountGateway is the account backend as seen by the portal.
type AccountGateway interface {
	recovery.AccountService
	ResetPassword(ctx context.Context, email, otp, newPassword string) (domain.ServiceReply, error)
}

// RecoveryDependencies encapsulates collaborators of the recovery service.
type RecoveryDependencies struct {
	Accounts AccountGateway
	Flashes  repository.FlashRepository
	Handoffs repository.HandoffRepository
	Events   events.Dispatcher
}

// RecoveryService runs the forgot-password workflow for browser sessions.
type RecoveryService struct {
	accounts AccountGateway
	flashes  repository.FlashRepository
	handoffs repository.HandoffRepository
	registry *recovery.Registry
	logger   *zap.Logger
}

// SubmitResult is the visible result of one submission.
type SubmitResult struct {
	Phase   recovery.Phase
	Outcome domain.RecoveryOutcome
}

// ResetPasswordInput is the reset-password form.
type ResetPasswordInput struct {
	Email           string
	OTP             string
	Password        string
	ConfirmPassword string
}

// NewRecoveryService builds the service.
func NewRecoveryService(cfg config.Config, deps RecoveryDependencies, logger *zap.Logger) *RecoveryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &RecoveryService{
		accounts: deps.Accounts,
		flashes:  deps.Flashes,
		handoffs: deps.Handoffs,
		logger:   logger,
	}
	s.registry = recovery.NewRegistry(func(sessionID string) *recovery.Orchestrator {
		return recovery.New(recovery.Options{
			ID:        sessionID,
			Service:   deps.Accounts,
			Sink:      &sessionSink{flashes: deps.Flashes, sessionID: sessionID, logger: logger},
			Navigator: &sessionNavigator{handoffs: deps.Handoffs, sessionID: sessionID},
			Events:    deps.Events,
			Logger:    logger,
		})
	}, cfg.Recovery.SessionIdle())
	return s
}

// Submit runs one forgot-password attempt for the session.
func (s *RecoveryService) Submit(ctx context.Context, sessionID, rawEmail string) (SubmitResult, error) {
	orch := s.registry.Get(sessionID)
	outcome, err := orch.Submit(ctx, rawEmail)
	if err != nil {
		return SubmitResult{Phase: orch.State().Phase}, err
	}
	return SubmitResult{Phase: recovery.PhaseCompleted, Outcome: outcome}, nil
}

// State returns the workflow state of the session.
func (s *RecoveryService) State(sessionID string) recovery.State {
	orch, ok := s.registry.Lookup(sessionID)
	if !ok {
		return recovery.State{Phase: recovery.PhaseIdle}
	}
	return orch.State()
}

// Reset returns the session's workflow to idle so the form can be resubmitted.
func (s *RecoveryService) Reset(sessionID string) error {
	orch, ok := s.registry.Lookup(sessionID)
	if !ok {
		return nil
	}
	if !orch.Reset() {
		return recovery.ErrInFlight
	}
	return nil
}

// Notifications drains the pending messages of the session.
func (s *RecoveryService) Notifications(ctx context.Context, sessionID string) ([]domain.Notification, error) {
	return s.flashes.Drain(ctx, sessionID)
}

// Flash queues a message for the session's next page render. Failures are logged.
func (s *RecoveryService) Flash(ctx context.Context, sessionID string, n domain.Notification) {
	if err := s.flashes.Push(ctx, sessionID, n); err != nil {
		s.logger.Warn("push flash", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// TakeHandoff consumes the bundle forwarded by an accepted submission.
func (s *RecoveryService) TakeHandoff(ctx context.Context, sessionID string) (*domain.Handoff, error) {
	return s.handoffs.Take(ctx, sessionID)
}

// ResetPassword completes the flow with the code issued by the account service.
func (s *RecoveryService) ResetPassword(ctx context.Context, sessionID string, in ResetPasswordInput) error {
	email, err := recovery.Validate(in.Email)
	if err != nil {
		return err
	}
	otp := strings.TrimSpace(in.OTP)
	if otp == "" {
		return ErrCodeRequired
	}
	if len(in.Password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}

	reply, err := s.accounts.ResetPassword(ctx, email, otp, in.Password)
	if err != nil {
		s.logger.Warn("reset password transport failure", zap.String("session_id", sessionID), zap.Error(err))
		return err
	}
	if !recovery.ReplySucceeded(reply) {
		msg := strings.TrimSpace(reply.Message)
		if msg == "" {
			msg = resetFallbackText
		}
		return &recovery.RejectedError{Message: msg}
	}

	if err := s.Reset(sessionID); err != nil {
		s.logger.Debug("workflow still in flight after reset", zap.String("session_id", sessionID))
	}
	s.Flash(ctx, sessionID, domain.Notification{Kind: domain.NotificationSuccess, Message: resetSuccessText})
	return nil
}

// Sessions reports how many workflows are live.
func (s *RecoveryService) Sessions() int {
	return s.registry.Len()
}

// Reset-password form errors.
var (
	ErrCodeRequired     = errorutil.NewValidationError("Please enter the code we sent you", map[string]any{"field": "otp"})
	ErrPasswordTooShort = errorutil.NewValidationError(fmt.Sprintf("Password must be at least %d characters", minPasswordLength), map[string]any{"field": "password"})
	ErrPasswordMismatch = errorutil.NewValidationError("Passwords do not match", map[string]any{"field": "confirm_password"})
)

// sessionSink queues notifications for the session's next page render.
type sessionSink struct {
	flashes   repository.FlashRepository
	sessionID string
	logger    *zap.Logger
}

func (s *sessionSink) Notify(kind domain.NotificationKind, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
	defer cancel()
	if err := s.flashes.Push(ctx, s.sessionID, domain.Notification{Kind: kind, Message: message}); err != nil {
		s.logger.Warn("flash notification dropped", zap.String("session_id", s.sessionID), zap.Error(err))
	}
}

// sessionNavigator stores the hand-off where the reset-password page picks it up.
type sessionNavigator struct {
	handoffs  repository.HandoffRepository
	sessionID string
}

func (n *sessionNavigator) Handoff(ctx context.Context, handoff domain.Handoff) error {
	return n.handoffs.Save(ctx, n.sessionID, handoff)
}
