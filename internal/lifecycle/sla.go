package lifecycle

import (
	"time"

	"github.com/civickit/grievance-service/internal/domain"
)

// resolutionWindows maps priority to the resolution commitment surfaced to
// citizens at submission. The deadline is derived once at creation and
// never recomputed.
var resolutionWindows = map[domain.TicketPriority]time.Duration{
	domain.PriorityCritical: 4 * time.Hour,
	domain.PriorityHigh:     24 * time.Hour,
	domain.PriorityMedium:   48 * time.Hour,
	domain.PriorityLow:      72 * time.Hour,
}

// DeadlineFor computes the SLA deadline for a ticket filed at createdAt
// with the given priority. Unknown priorities fall back to the low window.
func DeadlineFor(priority domain.TicketPriority, createdAt time.Time) time.Time {
	window, ok := resolutionWindows[priority]
	if !ok {
		window = resolutionWindows[domain.PriorityLow]
	}
	return createdAt.Add(window)
}

// Remaining returns the time left until the ticket's SLA deadline at the
// given instant. A negative duration signals breach; breach is a reporting
// signal only and never actuates a state change.
func Remaining(ticket *domain.Ticket, now time.Time) time.Duration {
	return ticket.SLADeadline.Sub(now)
}

// Breached reports whether the deadline has passed at the given instant.
func Breached(ticket *domain.Ticket, now time.Time) bool {
	return Remaining(ticket, now) < 0
}
