package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/why-platform/buzon-service/internal/clickup"
	"github.com/why-platform/buzon-service/internal/repository"
	"github.com/why-platform/buzon-service/internal/service"
	apperrors "github.com/why-platform/buzon-service/pkg/util"
)

// AdminHandler exposes operator actions over tracked tickets.
type AdminHandler struct {
	escalations *service.EscalationService
	states      repository.TicketStateRepository
	submissions repository.SubmissionRepository
	gateway     *clickup.Gateway
}

// NewAdminHandler constructs handler.
func NewAdminHandler(
	escalations *service.EscalationService,
	states repository.TicketStateRepository,
	submissions repository.SubmissionRepository,
	gateway *clickup.Gateway,
) *AdminHandler {
	return &AdminHandler{escalations: escalations, states: states, submissions: submissions, gateway: gateway}
}

// RunEscalations handles POST /admin/escalations/run.
func (h *AdminHandler) RunEscalations(c *fiber.Ctx) error {
	result, err := h.escalations.Sweep(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": result})
}

// GetTicket handles GET /admin/tickets/:id. ClickUp and the archive are
// joined best-effort; their lookup failures never hide the tracked state.
func (h *AdminHandler) GetTicket(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	state, err := h.states.Get(c.UserContext(), ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
		}
		return apperrors.MapError(err)
	}

	response := fiber.Map{"state": state}
	if h.gateway != nil && state.ClickUpTask != "" {
		if status, err := h.gateway.GetTicketStatus(c.UserContext(), state.ClickUpTask); err == nil {
			response["clickup"] = status
		} else {
			response["clickup_error"] = err.Error()
		}
	}
	if h.submissions != nil {
		if record, err := h.submissions.GetByTicketID(c.UserContext(), ticketID); err == nil {
			response["archive"] = record
		}
	}
	return c.JSON(fiber.Map{"data": response})
}

// ListSubmissions handles GET /admin/submissions.
func (h *AdminHandler) ListSubmissions(c *fiber.Ctx) error {
	if h.submissions == nil {
		return fiber.NewError(http.StatusServiceUnavailable, "submission archive disabled")
	}

	records, err := h.submissions.ListRecent(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": records})
}

// ResolveTicket handles POST /admin/tickets/:id/resolve: the ClickUp task is
// moved to resolved when linked, then the ticket leaves escalation tracking.
func (h *AdminHandler) ResolveTicket(c *fiber.Ctx) error {
	ticketID := c.Params("id")
	state, err := h.states.Get(c.UserContext(), ticketID)
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			return apperrors.NewNotFound("ticket", map[string]any{"ticketId": ticketID})
		}
		return apperrors.MapError(err)
	}

	var body struct {
		Comment string `json:"comment"`
	}
	_ = c.BodyParser(&body)

	response := fiber.Map{"ticketId": ticketID, "resolved": true}
	if h.gateway != nil && state.ClickUpTask != "" {
		if err := h.gateway.UpdateTicketStatus(c.UserContext(), state.ClickUpTask, "resuelto", body.Comment); err != nil {
			response["clickup_error"] = err.Error()
		}
	}

	if err := h.states.Remove(c.UserContext(), ticketID); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": response})
}
