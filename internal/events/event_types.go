package events

import (
	"time"

	"github.com/civickit/grievance-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketUnassigned    EventType = "ticket_unassigned"
	EventTicketAnnotated     EventType = "ticket_annotated"
)

// Event represents a domain event emitted after an accepted mutation.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     string      `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ServiceType domain.ServiceType    `json:"service_type"`
	Category    string                `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	SLADeadline time.Time             `json:"sla_deadline"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Message   string              `json:"message,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OfficerID  string  `json:"officer_id"`
	PreviousID *string `json:"previous_officer_id,omitempty"`
}

// TicketAnnotatedPayload payload.
type TicketAnnotatedPayload struct {
	Message string `json:"message"`
}
