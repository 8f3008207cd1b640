package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civickit/grievance-service/internal/domain"
	"github.com/civickit/grievance-service/internal/events"
	"github.com/civickit/grievance-service/internal/repository"
	apperrors "github.com/civickit/grievance-service/pkg/util/errorutil"
)

func newTestServices(t *testing.T) (*TicketService, *AssignmentService) {
	t.Helper()
	store := repository.NewMemoryStore()
	dispatcher := events.NewInMemoryDispatcher()
	now := func() time.Time { return testStart }
	tickets := NewTicketService(TicketDependencies{Store: store, Dispatcher: dispatcher, Now: now})
	assignments := NewAssignmentService(AssignmentDependencies{Store: store, Dispatcher: dispatcher, Now: now})
	return tickets, assignments
}

func TestAssignMovesRegisteredToAssigned(t *testing.T) {
	tickets, assignments := newTestServices(t)
	ticket := fileTicket(t, tickets, domain.PriorityMedium)

	updated, err := assignments.Assign(context.Background(), ticket.ID, 1, "O1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, updated.Status)
	require.NotNil(t, updated.AssignedOfficer)
	assert.Equal(t, "O1", *updated.AssignedOfficer)
	assert.EqualValues(t, 2, updated.Version)
	require.Len(t, updated.Timeline, 2)
	assert.Equal(t, domain.StatusAssigned, updated.Timeline[1].Status)
}

func TestReassignmentWhileAssigned(t *testing.T) {
	tickets, assignments := newTestServices(t)
	ticket := fileTicket(t, tickets, domain.PriorityMedium)
	ctx := context.Background()

	updated, err := assignments.Assign(ctx, ticket.ID, 1, "O1", "admin-1")
	require.NoError(t, err)

	updated, err = assignments.Assign(ctx, updated.ID, 2, "O2", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, updated.Status)
	assert.Equal(t, "O2", *updated.AssignedOfficer)
	assert.EqualValues(t, 3, updated.Version)
}

func TestAssignRejectedPastTheWindow(t *testing.T) {
	tickets, assignments := newTestServices(t)
	ticket := fileTicket(t, tickets, domain.PriorityMedium)
	ctx := context.Background()

	updated, err := tickets.TransitionStatus(ctx, ticket.ID, 1, domain.StatusInProgress, "admin", "", nil)
	require.NoError(t, err)

	_, err = assignments.Assign(ctx, updated.ID, 2, "O1", "admin-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAssignmentNotAllowed))

	updated, err = tickets.TransitionStatus(ctx, updated.ID, 2, domain.StatusResolved, "admin", "", nil)
	require.NoError(t, err)
	_, err = assignments.Assign(ctx, updated.ID, 3, "O1", "admin-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAssignmentNotAllowed))
}

func TestAssignRejectedOnClosedTicket(t *testing.T) {
	tickets, assignments := newTestServices(t)
	ticket := fileTicket(t, tickets, domain.PriorityMedium)
	ctx := context.Background()

	var err error
	for _, next := range []domain.TicketStatus{domain.StatusInProgress, domain.StatusResolved, domain.StatusClosed} {
		ticket, err = tickets.TransitionStatus(ctx, ticket.ID, ticket.Version, next, "admin", "", nil)
		require.NoError(t, err)
	}

	_, err = assignments.Assign(ctx, ticket.ID, ticket.Version, "O1", "admin-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTicketClosed))
	_, err = assignments.Unassign(ctx, ticket.ID, ticket.Version, "admin-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTicketClosed))
}

func TestAssignValidation(t *testing.T) {
	tickets, assignments := newTestServices(t)
	ticket := fileTicket(t, tickets, domain.PriorityMedium)
	ctx := context.Background()

	_, err := assignments.Assign(ctx, ticket.ID, 1, "  ", "admin-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = assignments.Assign(ctx, "missing", 1, "O1", "admin-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = assignments.Assign(ctx, ticket.ID, 9, "O1", "admin-1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeVersionConflict))
}

func TestUnassignKeepsStatus(t *testing.T) {
	tickets, assignments := newTestServices(t)
	ticket := fileTicket(t, tickets, domain.PriorityMedium)
	ctx := context.Background()

	updated, err := assignments.Assign(ctx, ticket.ID, 1, "O1", "admin-1")
	require.NoError(t, err)

	updated, err = assignments.Unassign(ctx, updated.ID, 2, "admin-1")
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedOfficer)
	// Unassign never moves the status; the entry is annotation-only.
	assert.Equal(t, domain.StatusAssigned, updated.Status)
	assert.EqualValues(t, 3, updated.Version)
	require.Len(t, updated.Timeline, 3)
	assert.Equal(t, domain.StatusAssigned, updated.Timeline[2].Status)
}
