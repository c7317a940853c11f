package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/domain"
	"github.com/pronet/recovery-portal/internal/events"
	"github.com/pronet/recovery-portal/internal/observability"
)

// NotificationService records diagnostics for recovery events. Rejections and
// transport failures look the same to the user; here they are kept apart.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range n.Events() {
		n.dispatcher.Subscribe(eventType, n.handlers()[eventType])
	}
}

// Events lists the event types the service follows.
func (n *NotificationService) Events() []events.EventType {
	return []events.EventType{
		events.EventRecoveryValidationFailed,
		events.EventRecoveryAccepted,
		events.EventRecoveryRejected,
		events.EventRecoveryTransportFailed,
	}
}

func (n *NotificationService) handlers() map[events.EventType]events.EventHandler {
	return map[events.EventType]events.EventHandler{
		events.EventRecoveryValidationFailed: n.handleValidationFailed,
		events.EventRecoveryAccepted:         n.handleAccepted,
		events.EventRecoveryRejected:         n.handleRejected,
		events.EventRecoveryTransportFailed:  n.handleTransportFailed,
	}
}

func (n *NotificationService) handleValidationFailed(_ context.Context, event events.Event) error {
	n.logger.Debug("RecoveryValidationFailed",
		zap.String("workflow_id", event.WorkflowID),
		zap.String("reason", event.Payload.Reason))
	n.metrics.RecordOutcome("validation_failed", 0)
	return nil
}

func (n *NotificationService) handleAccepted(_ context.Context, event events.Event) error {
	n.logger.Info("RecoveryAccepted",
		zap.String("workflow_id", event.WorkflowID),
		zap.String("email_domain", event.Payload.EmailDomain),
		zap.Bool("inline_otp", event.Payload.InlineOTP),
		zap.Duration("duration", event.Payload.Duration))
	if event.Payload.InlineOTP {
		n.logger.Warn("account service returned the one-time code inline",
			zap.String("workflow_id", event.WorkflowID))
	}
	n.metrics.RecordOutcome(string(domain.OutcomeAccepted), event.Payload.Duration)
	return nil
}

func (n *NotificationService) handleRejected(_ context.Context, event events.Event) error {
	n.logger.Info("RecoveryRejected",
		zap.String("workflow_id", event.WorkflowID),
		zap.String("email_domain", event.Payload.EmailDomain),
		zap.String("message", event.Payload.Message),
		zap.Duration("duration", event.Payload.Duration))
	n.metrics.RecordOutcome(string(domain.OutcomeRejected), event.Payload.Duration)
	return nil
}

func (n *NotificationService) handleTransportFailed(_ context.Context, event events.Event) error {
	n.logger.Error("RecoveryTransportFailed",
		zap.String("workflow_id", event.WorkflowID),
		zap.Int("http_status", event.Payload.HTTPStatus),
		zap.String("message", event.Payload.Message),
		zap.Duration("duration", event.Payload.Duration))
	n.metrics.RecordOutcome(string(domain.OutcomeTransportError), event.Payload.Duration)
	return nil
}
