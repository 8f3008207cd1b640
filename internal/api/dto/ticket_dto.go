package dto

import (
	"time"

	"github.com/civickit/grievance-service/internal/domain"
)

// CreateTicketRequest payload for a citizen filing.
type CreateTicketRequest struct {
	ServiceType domain.ServiceType    `json:"service_type"`
	Category    string                `json:"category"`
	Subcategory string                `json:"subcategory"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	Location    domain.Location       `json:"location"`
}

// TransitionRequest payload for a status change. OfficerID rides along when
// the transition into assigned should assign in the same step.
type TransitionRequest struct {
	ExpectedVersion int64               `json:"expected_version"`
	Status          domain.TicketStatus `json:"status"`
	Message         string              `json:"message"`
	OfficerID       *string             `json:"officer_id,omitempty"`
}

// AssignRequest payload.
type AssignRequest struct {
	ExpectedVersion int64  `json:"expected_version"`
	OfficerID       string `json:"officer_id"`
}

// UnassignRequest payload.
type UnassignRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
}

// AnnotateRequest payload.
type AnnotateRequest struct {
	ExpectedVersion int64  `json:"expected_version"`
	Message         string `json:"message"`
}

// UpdateResponse is one timeline entry.
type UpdateResponse struct {
	Timestamp time.Time           `json:"timestamp"`
	Status    domain.TicketStatus `json:"status"`
	Message   string              `json:"message"`
	Actor     string              `json:"actor"`
}

// TicketSummary is the list-view projection. SLA fields are computed at
// read time from the stored deadline.
type TicketSummary struct {
	ID                  string                `json:"id"`
	ServiceType         domain.ServiceType    `json:"service_type"`
	Category            string                `json:"category"`
	Priority            domain.TicketPriority `json:"priority"`
	Status              domain.TicketStatus   `json:"status"`
	AssignedOfficer     *string               `json:"assigned_officer,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
	SLADeadline         time.Time             `json:"sla_deadline"`
	SLARemainingSeconds int64                 `json:"sla_remaining_seconds"`
	SLABreached         bool                  `json:"sla_breached"`
	Version             int64                 `json:"version"`
}

// TicketDetailResponse is the full ticket snapshot including the timeline.
type TicketDetailResponse struct {
	ID                  string                `json:"id"`
	ServiceType         domain.ServiceType    `json:"service_type"`
	Category            string                `json:"category"`
	Subcategory         string                `json:"subcategory"`
	Description         string                `json:"description"`
	Priority            domain.TicketPriority `json:"priority"`
	Status              domain.TicketStatus   `json:"status"`
	Location            domain.Location       `json:"location"`
	FiledBy             string                `json:"filed_by"`
	AssignedOfficer     *string               `json:"assigned_officer,omitempty"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           time.Time             `json:"updated_at"`
	SLADeadline         time.Time             `json:"sla_deadline"`
	SLARemainingSeconds int64                 `json:"sla_remaining_seconds"`
	SLABreached         bool                  `json:"sla_breached"`
	Version             int64                 `json:"version"`
	Timeline            []UpdateResponse      `json:"timeline"`
}
