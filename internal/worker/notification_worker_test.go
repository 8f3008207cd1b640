package worker

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/civickit/grievance-service/internal/config"
	"github.com/civickit/grievance-service/internal/events"
	"github.com/civickit/grievance-service/internal/service"
)

func TestStartNotificationWorkerRegistersHandlers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{})

	StartNotificationWorker(notifications, zap.NewNop())

	if err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t1"}); err != nil {
		t.Fatalf("publish after registration: %v", err)
	}
}

func TestStartNotificationWorkerNilService(t *testing.T) {
	StartNotificationWorker(nil, zap.NewNop())
}
