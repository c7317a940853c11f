// Package worker starts the background subscribers of the portal.
package worker

import (
	"go.uber.org/zap"

	"github.com/pronet/recovery-portal/internal/events"
	"github.com/pronet/recovery-portal/internal/observability"
	"github.com/pronet/recovery-portal/internal/service"
)

// StartNotificationWorker attaches the diagnostics subscriber to dispatcher and
// returns it. Without a dispatcher there is nothing to listen on and it returns nil.
func StartNotificationWorker(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *service.NotificationService {
	if dispatcher == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	notifications := service.NewNotificationService(dispatcher, logger.Named("notifications"), metrics)
	notifications.RegisterHandlers()

	subscribed := make([]string, 0, len(notifications.Events()))
	for _, eventType := range notifications.Events() {
		subscribed = append(subscribed, string(eventType))
	}
	logger.Debug("notification worker subscribed", zap.Strings("events", subscribed))
	return notifications
}
