package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civickit/grievance-service/internal/api/dto"
	"github.com/civickit/grievance-service/internal/auth"
	"github.com/civickit/grievance-service/internal/observability"
	"github.com/civickit/grievance-service/internal/service"
	apperrors "github.com/civickit/grievance-service/pkg/util/errorutil"
)

// AdminTicketsHandler serves the administrative console endpoints: listing
// across all citizens, status transitions, assignment and annotations.
type AdminTicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
	metrics     *observability.Metrics
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(tickets *service.TicketService, assignments *service.AssignmentService, metrics *observability.Metrics) *AdminTicketsHandler {
	return &AdminTicketsHandler{tickets: tickets, assignments: assignments, metrics: metrics}
}

// ListTickets GET /admin/tickets.
func (h *AdminTicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketQuery(c)
	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets, h.metrics)})
}

// GetTicket GET /admin/tickets/:id.
func (h *AdminTicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, time.Now(), h.metrics)})
}

// TransitionStatus POST /admin/tickets/:id/status.
func (h *AdminTicketsHandler) TransitionStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ExpectedVersion <= 0 {
		return apperrors.NewValidationError("expected_version required", nil)
	}

	ticket, err := h.tickets.TransitionStatus(c.UserContext(), c.Params("id"),
		req.ExpectedVersion, req.Status, principal.SubjectID, strings.TrimSpace(req.Message), req.OfficerID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, time.Now(), h.metrics)})
}

// AssignOfficer POST /admin/tickets/:id/assign.
func (h *AdminTicketsHandler) AssignOfficer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ExpectedVersion <= 0 {
		return apperrors.NewValidationError("expected_version required", nil)
	}

	ticket, err := h.assignments.Assign(c.UserContext(), c.Params("id"),
		req.ExpectedVersion, req.OfficerID, principal.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, time.Now(), h.metrics)})
}

// UnassignOfficer POST /admin/tickets/:id/unassign.
func (h *AdminTicketsHandler) UnassignOfficer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.UnassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ExpectedVersion <= 0 {
		return apperrors.NewValidationError("expected_version required", nil)
	}

	ticket, err := h.assignments.Unassign(c.UserContext(), c.Params("id"),
		req.ExpectedVersion, principal.SubjectID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, time.Now(), h.metrics)})
}

// Annotate POST /admin/tickets/:id/notes.
func (h *AdminTicketsHandler) Annotate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("staff required")
	}
	var req dto.AnnotateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ExpectedVersion <= 0 {
		return apperrors.NewValidationError("expected_version required", nil)
	}

	ticket, err := h.tickets.Annotate(c.UserContext(), c.Params("id"),
		req.ExpectedVersion, principal.SubjectID, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, time.Now(), h.metrics)})
}
