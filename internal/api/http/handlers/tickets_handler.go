package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/civickit/grievance-service/internal/api/dto"
	"github.com/civickit/grievance-service/internal/auth"
	"github.com/civickit/grievance-service/internal/domain"
	"github.com/civickit/grievance-service/internal/lifecycle"
	"github.com/civickit/grievance-service/internal/observability"
	"github.com/civickit/grievance-service/internal/service"
	apperrors "github.com/civickit/grievance-service/pkg/util/errorutil"
)

// TicketsHandler serves the citizen-facing grievance endpoints.
type TicketsHandler struct {
	service *service.TicketService
	hints   *service.PollHintCache
	metrics *observability.Metrics
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, hints *service.PollHintCache, metrics *observability.Metrics) *TicketsHandler {
	return &TicketsHandler{service: ticketService, hints: hints, metrics: metrics}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("citizen required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		ServiceType: req.ServiceType,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		Description: req.Description,
		Priority:    req.Priority,
		Location:    req.Location,
		FiledBy:     principal.SubjectID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket, time.Now(), h.metrics)})
}

// ListTickets GET /tickets, scoped to the caller's own filings.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("citizen required")
	}
	filter := parseTicketQuery(c)
	filer := principal.SubjectID
	filter.FiledBy = &filer

	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummaries(tickets, h.metrics)})
}

// GetTicket GET /tickets/:id. A known_version query parameter lets a
// polling client short-circuit with 304 when nothing changed.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("citizen required")
	}

	id := c.Params("id")
	if known := parseInt64(c.Query("known_version"), 0); known > 0 {
		// The hint key carries the filer, so this can only short-circuit
		// for the caller's own ticket; a foreign ID misses and falls
		// through to the ownership check below.
		if h.hints.Unchanged(c.UserContext(), principal.SubjectID, id, known) {
			return c.SendStatus(fiber.StatusNotModified)
		}
	}

	ticket, err := h.service.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	if ticket.FiledBy != principal.SubjectID {
		return apperrors.NewForbidden("not your grievance")
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, time.Now(), h.metrics)})
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if serviceStr := c.Query("service_type"); serviceStr != "" {
		for _, part := range strings.Split(serviceStr, ",") {
			filter.ServiceTypes = append(filter.ServiceTypes, domain.ServiceType(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseInt64(val string, def int64) int64 {
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummaries(tickets []domain.Ticket, metrics *observability.Metrics) []dto.TicketSummary {
	now := time.Now()
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i], now, metrics))
	}
	return items
}

func ticketSummary(ticket *domain.Ticket, now time.Time, metrics *observability.Metrics) dto.TicketSummary {
	remaining := lifecycle.Remaining(ticket, now)
	breached := remaining < 0
	if breached {
		metrics.RecordSLABreachObserved()
	}
	return dto.TicketSummary{
		ID:                  ticket.ID,
		ServiceType:         ticket.ServiceType,
		Category:            ticket.Category,
		Priority:            ticket.Priority,
		Status:              ticket.Status,
		AssignedOfficer:     ticket.AssignedOfficer,
		CreatedAt:           ticket.CreatedAt,
		UpdatedAt:           ticket.UpdatedAt,
		SLADeadline:         ticket.SLADeadline,
		SLARemainingSeconds: int64(remaining.Seconds()),
		SLABreached:         breached,
		Version:             ticket.Version,
	}
}

func ticketDetail(ticket *domain.Ticket, now time.Time, metrics *observability.Metrics) dto.TicketDetailResponse {
	remaining := lifecycle.Remaining(ticket, now)
	breached := remaining < 0
	if breached {
		metrics.RecordSLABreachObserved()
	}
	timeline := make([]dto.UpdateResponse, 0, len(ticket.Timeline))
	for _, update := range ticket.Timeline {
		timeline = append(timeline, dto.UpdateResponse{
			Timestamp: update.Timestamp,
			Status:    update.Status,
			Message:   update.Message,
			Actor:     update.Actor,
		})
	}
	return dto.TicketDetailResponse{
		ID:                  ticket.ID,
		ServiceType:         ticket.ServiceType,
		Category:            ticket.Category,
		Subcategory:         ticket.Subcategory,
		Description:         ticket.Description,
		Priority:            ticket.Priority,
		Status:              ticket.Status,
		Location:            ticket.Location,
		FiledBy:             ticket.FiledBy,
		AssignedOfficer:     ticket.AssignedOfficer,
		CreatedAt:           ticket.CreatedAt,
		UpdatedAt:           ticket.UpdatedAt,
		SLADeadline:         ticket.SLADeadline,
		SLARemainingSeconds: int64(remaining.Seconds()),
		SLABreached:         breached,
		Version:             ticket.Version,
		Timeline:            timeline,
	}
}
