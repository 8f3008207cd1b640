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

// AssignmentService records which field officer currently owns a ticket.
// Assignment and the status move to assigned happen as one atomic write:
// one version bump, one timeline entry, so no snapshot ever shows an
// assigned status without an officer or the reverse.
type AssignmentService struct {
	store      repository.TicketStore
	dispatcher events.Dispatcher
	hints      *PollHintCache
	logger     *zap.Logger
	now        func() time.Time
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Store      repository.TicketStore
	Dispatcher events.Dispatcher
	Hints      *PollHintCache
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	svc := &AssignmentService{
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

// Assign gives the ticket to an officer. Legal only while the ticket is
// registered or already assigned (reassignment); a registered ticket moves
// to assigned in the same step.
func (s *AssignmentService) Assign(ctx context.Context, id string, expectedVersion int64, officerID, actor string) (*domain.Ticket, error) {
	if strings.TrimSpace(officerID) == "" {
		return nil, apperrors.NewValidationError("officer_id required", nil)
	}

	ticket, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id)
	}
	if ticket.Closed() {
		return nil, apperrors.NewTicketClosed(ticket.ID)
	}
	if !lifecycle.Assignable(ticket.Status) {
		return nil, apperrors.NewAssignmentNotAllowed(string(ticket.Status))
	}
	if ticket.Version != expectedVersion {
		return nil, apperrors.NewVersionConflict(expectedVersion, ticket.Version)
	}

	previous := ticket.AssignedOfficer
	officer := strings.TrimSpace(officerID)
	ticket.AssignedOfficer = &officer
	ticket.Status = domain.StatusAssigned

	now := s.now().UTC()
	ticket.Timeline = append(ticket.Timeline, domain.Update{
		Timestamp: now,
		Status:    domain.StatusAssigned,
		Message:   "assigned to officer " + officer,
		Actor:     actor,
	})
	ticket.UpdatedAt = now
	ticket.Version = expectedVersion + 1

	if err := s.store.UpdateVersioned(ctx, ticket, expectedVersion); err != nil {
		return nil, s.mapWriteError(ctx, err, id, expectedVersion)
	}
	s.hints.Record(ctx, ticket.FiledBy, ticket.ID, ticket.Version)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    actor,
		Payload: events.TicketAssignedPayload{
			OfficerID:  officer,
			PreviousID: previous,
		},
	})
	return ticket, nil
}

// Unassign clears the officer without touching status. The timeline entry
// is annotation-only: it repeats the current status.
func (s *AssignmentService) Unassign(ctx context.Context, id string, expectedVersion int64, actor string) (*domain.Ticket, error) {
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

	message := "officer unassigned"
	if ticket.AssignedOfficer != nil {
		message = "officer " + *ticket.AssignedOfficer + " unassigned"
	}
	ticket.AssignedOfficer = nil

	now := s.now().UTC()
	ticket.Timeline = append(ticket.Timeline, domain.Update{
		Timestamp: now,
		Status:    ticket.Status,
		Message:   message,
		Actor:     actor,
	})
	ticket.UpdatedAt = now
	ticket.Version = expectedVersion + 1

	if err := s.store.UpdateVersioned(ctx, ticket, expectedVersion); err != nil {
		return nil, s.mapWriteError(ctx, err, id, expectedVersion)
	}
	s.hints.Record(ctx, ticket.FiledBy, ticket.ID, ticket.Version)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUnassigned,
		TicketID: ticket.ID,
		Actor:    actor,
	})
	return ticket, nil
}

func (s *AssignmentService) mapWriteError(ctx context.Context, err error, id string, expectedVersion int64) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		actual := expectedVersion
		if current, getErr := s.store.GetByID(ctx, id); getErr == nil {
			actual = current.Version
		}
		return apperrors.NewVersionConflict(expectedVersion, actual)
	}
	return mapStoreError(err, id)
}

func (s *AssignmentService) publishEvent(ctx context.Context, event events.Event) {
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
