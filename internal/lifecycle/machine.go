// Package lifecycle holds the pure rules of the grievance ticket lifecycle:
// the status transition table and the SLA clock. Nothing here touches
// storage or clocks other than what the caller passes in.
package lifecycle

import (
	"github.com/civickit/grievance-service/internal/domain"
	apperrors "github.com/civickit/grievance-service/pkg/util/errorutil"
)

// allowedTransitions lists the forward edges of the lifecycle. Self-loops
// (annotation without a status change) are handled separately and are legal
// everywhere except on closed tickets.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.StatusRegistered: {domain.StatusAssigned, domain.StatusInProgress},
	domain.StatusAssigned:   {domain.StatusInProgress},
	domain.StatusInProgress: {domain.StatusResolved},
	domain.StatusResolved:   {domain.StatusClosed},
	domain.StatusClosed:     {},
}

func edgeExists(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ValidateTransition decides whether a ticket in its current state accepts
// the requested status. It returns nil for legal forward edges and legal
// self-loops, and a typed rejection otherwise:
//
//   - TicketClosed for any request against a closed ticket, self-loop
//     included;
//   - MissingAssignment for a move into assigned without an officer present
//     either on the ticket or in the same request;
//   - InvalidTransition for every edge outside the table.
func ValidateTransition(ticket *domain.Ticket, requested domain.TicketStatus, officerSupplied bool) error {
	if ticket.Closed() {
		return apperrors.NewTicketClosed(ticket.ID)
	}
	if requested == ticket.Status {
		return nil
	}
	if !edgeExists(ticket.Status, requested) {
		return apperrors.NewInvalidTransition(string(ticket.Status), string(requested))
	}
	if requested == domain.StatusAssigned && ticket.AssignedOfficer == nil && !officerSupplied {
		return apperrors.NewMissingAssignment()
	}
	return nil
}

// Assignable reports whether a ticket in the given status may receive an
// officer. Reassignment while already assigned is permitted; anything past
// that window is not.
func Assignable(status domain.TicketStatus) bool {
	return status == domain.StatusRegistered || status == domain.StatusAssigned
}
