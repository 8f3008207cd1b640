package lifecycle

import (
	"testing"
	"time"

	"github.com/civickit/grievance-service/internal/domain"
)

func TestDeadlineForMatchesResolutionTable(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		priority domain.TicketPriority
		window   time.Duration
	}{
		{domain.PriorityCritical, 4 * time.Hour},
		{domain.PriorityHigh, 24 * time.Hour},
		{domain.PriorityMedium, 48 * time.Hour},
		{domain.PriorityLow, 72 * time.Hour},
	}
	for _, tc := range cases {
		got := DeadlineFor(tc.priority, createdAt)
		if want := createdAt.Add(tc.window); !got.Equal(want) {
			t.Fatalf("priority %s: expected deadline %v, got %v", tc.priority, want, got)
		}
	}
}

func TestDeadlineForUnknownPriorityFallsBackToLow(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	got := DeadlineFor(domain.TicketPriority("bogus"), createdAt)
	if want := createdAt.Add(72 * time.Hour); !got.Equal(want) {
		t.Fatalf("expected low window fallback %v, got %v", want, got)
	}
}

func TestRemainingSignsAndBreach(t *testing.T) {
	createdAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		Priority:    domain.PriorityCritical,
		CreatedAt:   createdAt,
		SLADeadline: DeadlineFor(domain.PriorityCritical, createdAt),
	}

	before := createdAt.Add(1 * time.Hour)
	if got := Remaining(ticket, before); got != 3*time.Hour {
		t.Fatalf("expected 3h remaining, got %v", got)
	}
	if Breached(ticket, before) {
		t.Fatalf("ticket should not be breached before the deadline")
	}

	after := createdAt.Add(5 * time.Hour)
	if got := Remaining(ticket, after); got != -1*time.Hour {
		t.Fatalf("expected -1h remaining, got %v", got)
	}
	if !Breached(ticket, after) {
		t.Fatalf("ticket should be breached after the deadline")
	}
}
