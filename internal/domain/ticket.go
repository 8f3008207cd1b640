package domain

import "time"

// ServiceType enumerates the utility services a grievance can target.
type ServiceType string

const (
	ServiceElectricity ServiceType = "electricity"
	ServiceGas         ServiceType = "gas"
	ServiceWater       ServiceType = "water"
)

// ValidServiceType reports whether the value is a known service.
func ValidServiceType(s ServiceType) bool {
	switch s {
	case ServiceElectricity, ServiceGas, ServiceWater:
		return true
	}
	return false
}

// TicketStatus enumerates lifecycle states for grievance tickets.
type TicketStatus string

const (
	StatusRegistered TicketStatus = "registered"
	StatusAssigned   TicketStatus = "assigned"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// statusRank fixes the lifecycle ordering. Timeline entries must carry
// non-decreasing ranks.
var statusRank = map[TicketStatus]int{
	StatusRegistered: 0,
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusResolved:   3,
	StatusClosed:     4,
}

// Rank returns the position of the status in the lifecycle order,
// or -1 for an unknown status.
func (s TicketStatus) Rank() int {
	rank, ok := statusRank[s]
	if !ok {
		return -1
	}
	return rank
}

// ValidStatus reports whether the value is a known lifecycle state.
func ValidStatus(s TicketStatus) bool {
	_, ok := statusRank[s]
	return ok
}

// TicketPriority enumerates SLA urgency decided at intake.
type TicketPriority string

const (
	PriorityLow      TicketPriority = "low"
	PriorityMedium   TicketPriority = "medium"
	PriorityHigh     TicketPriority = "high"
	PriorityCritical TicketPriority = "critical"
)

// ValidPriority reports whether the value is a known priority.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Location pins a grievance to a place.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Ticket is the aggregate for one citizen grievance, from filing to closure.
//
// Category, Subcategory, Description, Priority and Location are fixed at
// intake; corrections go through the timeline, not field edits. SLADeadline
// is derived from Priority once at creation and never recomputed. Version
// increments by exactly one per accepted mutation and serves as the
// optimistic concurrency token.
type Ticket struct {
	ID              string
	ServiceType     ServiceType
	Category        string
	Subcategory     string
	Description     string
	Priority        TicketPriority
	Status          TicketStatus
	Location        Location
	FiledBy         string
	AssignedOfficer *string
	CreatedAt       time.Time
	SLADeadline     time.Time
	UpdatedAt       time.Time
	Version         int64
	Timeline        []Update
}

// Closed reports whether the ticket has reached its terminal state.
func (t *Ticket) Closed() bool {
	return t.Status == StatusClosed
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	copied := *t
	if t.AssignedOfficer != nil {
		officer := *t.AssignedOfficer
		copied.AssignedOfficer = &officer
	}
	copied.Timeline = make([]Update, len(t.Timeline))
	copy(copied.Timeline, t.Timeline)
	return &copied
}
