package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civickit/grievance-service/internal/domain"
	"github.com/civickit/grievance-service/internal/events"
	"github.com/civickit/grievance-service/internal/repository"
	apperrors "github.com/civickit/grievance-service/pkg/util/errorutil"
)

var testStart = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestTicketService(t *testing.T) (*TicketService, repository.TicketStore) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := NewTicketService(TicketDependencies{
		Store:      store,
		Dispatcher: events.NewInMemoryDispatcher(),
		Now:        func() time.Time { return testStart },
	})
	return svc, store
}

func fileTicket(t *testing.T, svc *TicketService, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := svc.CreateTicket(context.Background(), TicketCreateInput{
		ServiceType: domain.ServiceElectricity,
		Category:    "outage",
		Subcategory: "street",
		Description: "no power since morning",
		Priority:    priority,
		Location:    domain.Location{Latitude: 26.9, Longitude: 75.8, Address: "Ward 12"},
		FiledBy:     "citizen-7",
	})
	require.NoError(t, err)
	return ticket
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	svc, _ := newTestTicketService(t)
	created := fileTicket(t, svc, domain.PriorityMedium)

	fetched, err := svc.GetTicket(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusRegistered, fetched.Status)
	assert.EqualValues(t, 1, fetched.Version)
	require.Len(t, fetched.Timeline, 1)
	assert.Equal(t, "citizen-7", fetched.Timeline[0].Actor)
	assert.Equal(t, domain.StatusRegistered, fetched.Timeline[0].Status)
	assert.Nil(t, fetched.AssignedOfficer)
}

func TestCreateTicketSLADeadlines(t *testing.T) {
	svc, _ := newTestTicketService(t)
	windows := map[domain.TicketPriority]time.Duration{
		domain.PriorityCritical: 4 * time.Hour,
		domain.PriorityHigh:     24 * time.Hour,
		domain.PriorityMedium:   48 * time.Hour,
		domain.PriorityLow:      72 * time.Hour,
	}
	for priority, window := range windows {
		ticket := fileTicket(t, svc, priority)
		assert.Equal(t, ticket.CreatedAt.Add(window), ticket.SLADeadline, "priority %s", priority)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ctx := context.Background()

	_, err := svc.CreateTicket(ctx, TicketCreateInput{
		ServiceType: "telecom",
		Description: "x",
		FiledBy:     "citizen-7",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = svc.CreateTicket(ctx, TicketCreateInput{
		ServiceType: domain.ServiceGas,
		Priority:    "panic",
		Description: "x",
		FiledBy:     "citizen-7",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	_, err = svc.CreateTicket(ctx, TicketCreateInput{
		ServiceType: domain.ServiceGas,
		Description: "   ",
		FiledBy:     "citizen-7",
	})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	// Empty priority defaults to medium.
	ticket, err := svc.CreateTicket(ctx, TicketCreateInput{
		ServiceType: domain.ServiceGas,
		Description: "smell of gas",
		FiledBy:     "citizen-7",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, ticket.Priority)
}

// Full lifecycle walk from the admin console's point of view: critical
// ticket, assignment, escalation to closure, then immutability.
func TestLifecycleScenario(t *testing.T) {
	svc, _ := newTestTicketService(t)
	assignments := NewAssignmentService(AssignmentDependencies{
		Store:      storeOf(svc),
		Dispatcher: events.NewInMemoryDispatcher(),
		Now:        func() time.Time { return testStart },
	})
	ctx := context.Background()

	ticket := fileTicket(t, svc, domain.PriorityCritical)
	assert.Equal(t, ticket.CreatedAt.Add(4*time.Hour), ticket.SLADeadline)

	ticket, err := assignments.Assign(ctx, ticket.ID, 1, "O1", "admin-1")
	require.NoError(t, err)
	require.NotNil(t, ticket.AssignedOfficer)
	assert.Equal(t, "O1", *ticket.AssignedOfficer)
	assert.Equal(t, domain.StatusAssigned, ticket.Status)
	assert.EqualValues(t, 2, ticket.Version)
	assert.Len(t, ticket.Timeline, 2)

	_, err = svc.TransitionStatus(ctx, ticket.ID, 2, domain.StatusRegistered, "admin-1", "", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidTransition))

	for _, next := range []domain.TicketStatus{domain.StatusInProgress, domain.StatusResolved, domain.StatusClosed} {
		ticket, err = svc.TransitionStatus(ctx, ticket.ID, ticket.Version, next, "officer-O1", "", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, domain.StatusClosed, ticket.Status)
	assert.EqualValues(t, 5, ticket.Version)
	// Officer stays on the closed ticket as an audit record.
	require.NotNil(t, ticket.AssignedOfficer)

	_, err = svc.Annotate(ctx, ticket.ID, 5, "officer-O1", "late note")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTicketClosed))
}

func TestDirectEscalationWithoutAssignment(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ticket := fileTicket(t, svc, domain.PriorityHigh)

	updated, err := svc.TransitionStatus(context.Background(), ticket.ID, 1, domain.StatusInProgress, "admin-1", "crew dispatched", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Nil(t, updated.AssignedOfficer)
}

func TestTransitionToAssignedRequiresOfficer(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ticket := fileTicket(t, svc, domain.PriorityLow)
	ctx := context.Background()

	_, err := svc.TransitionStatus(ctx, ticket.ID, 1, domain.StatusAssigned, "admin-1", "", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMissingAssignment))

	officer := "O2"
	updated, err := svc.TransitionStatus(ctx, ticket.ID, 1, domain.StatusAssigned, "admin-1", "", &officer)
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedOfficer)
	assert.Equal(t, "O2", *updated.AssignedOfficer)
	assert.Equal(t, domain.StatusAssigned, updated.Status)
	assert.EqualValues(t, 2, updated.Version)
	assert.Len(t, updated.Timeline, 2)
}

func TestAnnotateKeepsStatusAndAppendsOneEntry(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ticket := fileTicket(t, svc, domain.PriorityMedium)

	updated, err := svc.Annotate(context.Background(), ticket.ID, 1, "officer-O1", "site inspected")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRegistered, updated.Status)
	assert.EqualValues(t, 2, updated.Version)
	require.Len(t, updated.Timeline, 2)
	assert.Equal(t, domain.StatusRegistered, updated.Timeline[1].Status)
	assert.Equal(t, "site inspected", updated.Timeline[1].Message)
}

// A closed ticket answers TicketClosed to every mutation, stale version or
// not; VersionConflict never masks closure.
func TestClosedTicketWinsOverStaleVersion(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ticket := fileTicket(t, svc, domain.PriorityMedium)
	ctx := context.Background()

	var err error
	for _, next := range []domain.TicketStatus{domain.StatusInProgress, domain.StatusResolved, domain.StatusClosed} {
		ticket, err = svc.TransitionStatus(ctx, ticket.ID, ticket.Version, next, "admin", "", nil)
		require.NoError(t, err)
	}

	_, err = svc.TransitionStatus(ctx, ticket.ID, 1, domain.StatusClosed, "admin", "", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTicketClosed), "got %v", err)

	_, err = svc.Annotate(ctx, ticket.ID, 1, "admin", "late note")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTicketClosed), "got %v", err)
}

func TestStaleVersionRejected(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ticket := fileTicket(t, svc, domain.PriorityMedium)
	ctx := context.Background()

	_, err := svc.TransitionStatus(ctx, ticket.ID, 1, domain.StatusInProgress, "admin-1", "", nil)
	require.NoError(t, err)

	_, err = svc.TransitionStatus(ctx, ticket.ID, 1, domain.StatusInProgress, "admin-2", "", nil)
	require.True(t, apperrors.HasCode(err, apperrors.CodeVersionConflict))
	domainErr := apperrors.ToDomainError(err)
	assert.EqualValues(t, 1, domainErr.Details["expected_version"])
	assert.EqualValues(t, 2, domainErr.Details["actual_version"])
}

// Two writers race on the same observed version: exactly one wins, the
// loser refetches and sees one new timeline entry.
func TestConcurrentTransitionsExactlyOneWins(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ticket := fileTicket(t, svc, domain.PriorityMedium)
	ctx := context.Background()

	const writers = 4
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = svc.TransitionStatus(ctx, ticket.ID, 1, domain.StatusInProgress, "admin", "", nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, apperrors.HasCode(err, apperrors.CodeVersionConflict), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)

	final, err := svc.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, final.Version)
	assert.Len(t, final.Timeline, 2)
}

func TestTimelineStatusNonDecreasing(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ticket := fileTicket(t, svc, domain.PriorityHigh)
	ctx := context.Background()
	officer := "O1"

	var err error
	ticket, err = svc.TransitionStatus(ctx, ticket.ID, 1, domain.StatusAssigned, "admin", "", &officer)
	require.NoError(t, err)
	ticket, err = svc.Annotate(ctx, ticket.ID, 2, "officer-O1", "reached the site")
	require.NoError(t, err)
	ticket, err = svc.TransitionStatus(ctx, ticket.ID, 3, domain.StatusInProgress, "officer-O1", "", nil)
	require.NoError(t, err)
	ticket, err = svc.TransitionStatus(ctx, ticket.ID, 4, domain.StatusResolved, "officer-O1", "fixed", nil)
	require.NoError(t, err)

	require.NotEmpty(t, ticket.Timeline)
	prev := -1
	for _, update := range ticket.Timeline {
		rank := update.Status.Rank()
		require.GreaterOrEqual(t, rank, prev, "timeline status order regressed at %q", update.Message)
		prev = rank
	}
	assert.EqualValues(t, 5, ticket.Version)
	assert.Len(t, ticket.Timeline, 5)
}

func TestSLADeadlineUnaffectedByOperations(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ticket := fileTicket(t, svc, domain.PriorityCritical)
	deadline := ticket.SLADeadline
	ctx := context.Background()

	updated, err := svc.TransitionStatus(ctx, ticket.ID, 1, domain.StatusInProgress, "admin", "", nil)
	require.NoError(t, err)
	updated, err = svc.Annotate(ctx, updated.ID, 2, "admin", "checking")
	require.NoError(t, err)

	assert.Equal(t, deadline, updated.SLADeadline)
}

func TestOperationsOnMissingTicket(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ctx := context.Background()

	_, err := svc.GetTicket(ctx, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = svc.TransitionStatus(ctx, "missing", 1, domain.StatusInProgress, "admin", "", nil)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = svc.Annotate(ctx, "missing", 1, "admin", "note")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestListTicketsFiledByScope(t *testing.T) {
	svc, _ := newTestTicketService(t)
	ctx := context.Background()

	fileTicket(t, svc, domain.PriorityMedium)
	_, err := svc.CreateTicket(ctx, TicketCreateInput{
		ServiceType: domain.ServiceWater,
		Description: "leaking main",
		Priority:    domain.PriorityHigh,
		FiledBy:     "citizen-9",
	})
	require.NoError(t, err)

	mine := "citizen-7"
	tickets, err := svc.ListTickets(ctx, TicketListFilter{FiledBy: &mine})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "citizen-7", tickets[0].FiledBy)
}

// storeOf exposes the service's store for wiring a sibling service in tests.
func storeOf(svc *TicketService) repository.TicketStore {
	return svc.store
}
