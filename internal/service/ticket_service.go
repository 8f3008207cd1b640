package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civickit/grievance-service/internal/domain"
	"github.com/civickit/grievance-service/internal/events"
	"github.com/civickit/grievance-service/internal/lifecycle"
	"github.com/civickit/grievance-service/internal/repository"
	apperrors "github.com/civickit/grievance-service/pkg/util/errorutil"
)

// TicketService owns the grievance lifecycle operations. Every mutation is
// one read-modify-write against the store, guarded by the caller-supplied
// expected version; conflicts surface as VersionConflict and are never
// retried here.
type TicketService struct {
	store      repository.TicketStore
	dispatcher events.Dispatcher
	hints      *PollHintCache
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.TicketStore
	Dispatcher events.Dispatcher
	Hints      *PollHintCache
	Logger     *zap.Logger
	Now        func() time.Time
}

// TicketCreateInput describes a citizen filing.
type TicketCreateInput struct {
	ServiceType domain.ServiceType
	Category    string
	Subcategory string
	Description string
	Priority    domain.TicketPriority
	Location    domain.Location
	FiledBy     string
}

// TicketListFilter describes read-side predicates for the sync surface.
type TicketListFilter struct {
	FiledBy      *string
	Statuses     []domain.TicketStatus
	ServiceTypes []domain.ServiceType
	Priorities   []domain.TicketPriority
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		hints:      deps.Hints,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	return svc
}

// CreateTicket registers a new grievance. The SLA deadline is derived from
// priority here, once, and the first timeline entry is written in the same
// step so no ticket ever exists with an empty timeline.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if !domain.ValidServiceType(input.ServiceType) {
		return nil, apperrors.NewValidationError("unknown service type", map[string]any{"service_type": input.ServiceType})
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	if strings.TrimSpace(input.FiledBy) == "" {
		return nil, apperrors.NewValidationError("filed_by required", nil)
	}

	now := s.now().UTC()
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		ServiceType: input.ServiceType,
		Category:    strings.TrimSpace(input.Category),
		Subcategory: strings.TrimSpace(input.Subcategory),
		Description: strings.TrimSpace(input.Description),
		Priority:    input.Priority,
		Status:      domain.StatusRegistered,
		Location:    input.Location,
		FiledBy:     input.FiledBy,
		CreatedAt:   now,
		SLADeadline: lifecycle.DeadlineFor(input.Priority, now),
		UpdatedAt:   now,
		Version:     1,
		Timeline: []domain.Update{{
			Timestamp: now,
			Status:    domain.StatusRegistered,
			Message:   "grievance registered",
			Actor:     input.FiledBy,
		}},
	}

	if err := s.store.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.hints.Record(ctx, ticket.FiledBy, ticket.ID, ticket.Version)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    input.FiledBy,
		Payload: events.TicketCreatedPayload{
			ServiceType: ticket.ServiceType,
			Category:    ticket.Category,
			Priority:    ticket.Priority,
			SLADeadline: ticket.SLADeadline,
		},
	})
	return ticket, nil
}

// GetTicket returns a consistent snapshot of one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	return ticket, nil
}

// ListTickets returns snapshots ordered newest-first by creation time.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.store.List(ctx, repository.TicketFilter{
		FiledBy:      filter.FiledBy,
		Statuses:     filter.Statuses,
		ServiceTypes: filter.ServiceTypes,
		Priorities:   filter.Priorities,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// TransitionStatus moves a ticket along the lifecycle. A request for the
// current status is a pure annotation. A transition into assigned must carry
// an officer unless one is already on the ticket; supplying one applies the
// assignment in the same atomic step.
func (s *TicketService) TransitionStatus(ctx context.Context, id string, expectedVersion int64, requested domain.TicketStatus, actor, message string, officerID *string) (*domain.Ticket, error) {
	if !domain.ValidStatus(requested) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": requested})
	}

	ticket, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	// Closed wins over a stale version: every mutation on a closed ticket
	// answers the same way regardless of what version the caller holds.
	if ticket.Closed() {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}
	if ticket.Version != expectedVersion {
		return nil, apperrors.NewVersionConflict(expectedVersion, ticket.Version)
	}
	if err := lifecycle.ValidateTransition(ticket, requested, officerID != nil); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = requested
	if requested == domain.StatusAssigned && officerID != nil {
		officer := *officerID
		ticket.AssignedOfficer = &officer
	}
	if message == "" {
		message = "status changed to " + string(requested)
	}
	s.applyUpdate(ticket, expectedVersion, requested, actor, message)

	if err := s.store.UpdateVersioned(ctx, ticket, expectedVersion); err != nil {
		return nil, s.mapWriteError(ctx, err, id, expectedVersion)
	}
	s.hints.Record(ctx, ticket.FiledBy, ticket.ID, ticket.Version)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Message:   message,
		},
	})
	return ticket, nil
}

// Annotate appends a timeline note without changing status. Closed tickets
// reject annotations like every other mutation.
func (s *TicketService) Annotate(ctx context.Context, id string, expectedVersion int64, actor, message string) (*domain.Ticket, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}

	ticket, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	if ticket.Closed() {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}
	if ticket.Version != expectedVersion {
		return nil, apperrors.NewVersionConflict(expectedVersion, ticket.Version)
	}

	s.applyUpdate(ticket, expectedVersion, ticket.Status, actor, strings.TrimSpace(message))

	if err := s.store.UpdateVersioned(ctx, ticket, expectedVersion); err != nil {
		return nil, s.mapWriteError(ctx, err, id, expectedVersion)
	}
	s.hints.Record(ctx, ticket.FiledBy, ticket.ID, ticket.Version)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAnnotated,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload:  events.TicketAnnotatedPayload{Message: message},
	})
	return ticket, nil
}

// applyUpdate appends exactly one timeline entry and advances the
// mutation bookkeeping: one entry, one version increment, updatedAt moves
// forward.
func (s *TicketService) applyUpdate(ticket *domain.Ticket, expectedVersion int64, status domain.TicketStatus, actor, message string) {
	now := s.now().UTC()
	ticket.Timeline = append(ticket.Timeline, domain.Update{
		Timestamp: now,
		Status:    status,
		Message:   message,
		Actor:     actor,
	})
	ticket.UpdatedAt = now
	ticket.Version = expectedVersion + 1
}

// mapWriteError converts store write failures into the public taxonomy. On
// a lost race the current version is re-read best-effort so the caller
// learns what to refetch against.
func (s *TicketService) mapWriteError(ctx context.Context, err error, id string, expectedVersion int64) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		actual := expectedVersion
		if current, getErr := s.store.GetByID(ctx, id); getErr == nil {
			actual = current.Version
		}
		return apperrors.NewVersionConflict(expectedVersion, actual)
	}
	return mapStoreError(err, id)
}

func mapStoreError(err error, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return apperrors.MapError(err)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
