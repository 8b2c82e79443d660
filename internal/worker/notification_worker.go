package worker

import (
	"github.com/spec-kit/token-queue-service/internal/service"
)

// StartNotificationWorker hooks the notification service into the event
// dispatcher so called tokens are forwarded to the configured webhook.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
