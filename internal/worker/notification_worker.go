package worker

import (
	"go.uber.org/zap"

	"github.com/civickit/grievance-service/internal/service"
)

// StartNotificationWorker hooks the notification service into the grievance
// event stream. Delivery is synchronous on the dispatcher; the worker only
// owns registration so main stays pure wiring.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
	logger.Info("notification handlers registered",
		zap.Strings("events", []string{"ticket_created", "ticket_status_changed", "ticket_assigned"}))
}
