package repository

import (
	"context"
	"errors"

	"github.com/civickit/grievance-service/internal/domain"
)

// Store-level sentinel errors. The service layer maps these onto the
// public error taxonomy.
var (
	ErrNotFound        = errors.New("ticket not found")
	ErrVersionConflict = errors.New("ticket version conflict")
)

// TicketFilter captures the read-side predicates of the sync surface.
// Filtering never has side effects.
type TicketFilter struct {
	FiledBy      *string
	Statuses     []domain.TicketStatus
	ServiceTypes []domain.ServiceType
	Priorities   []domain.TicketPriority
	Limit        int
	Offset       int
}

// TicketStore is the single source of truth for grievance tickets. Every
// mutation after creation goes through UpdateVersioned, which applies the
// new record only if the stored version still equals expectedVersion.
// Reads return snapshots that callers may mutate freely.
type TicketStore interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateVersioned(ctx context.Context, ticket *domain.Ticket, expectedVersion int64) error
}
