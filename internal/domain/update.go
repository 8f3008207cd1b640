package domain

import "time"

// ActorSystem marks timeline entries produced by the service itself.
const ActorSystem = "system"

// Update is one immutable entry of a ticket's timeline. Status records the
// state in effect after the update; annotation-only entries repeat the
// previous status.
type Update struct {
	Timestamp time.Time    `json:"timestamp"`
	Status    TicketStatus `json:"status"`
	Message   string       `json:"message"`
	Actor     string       `json:"actor"`
}
