package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/why-platform/buzon-service/internal/api/dto"
	"github.com/why-platform/buzon-service/internal/domain"
	"github.com/why-platform/buzon-service/internal/service"
)

// MessagesHandler exposes the submission endpoint.
type MessagesHandler struct {
	submissions *service.SubmissionService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(submissions *service.SubmissionService) *MessagesHandler {
	return &MessagesHandler{submissions: submissions}
}

// Submit handles POST /api/v1/messages.
func (h *MessagesHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.submissions.Submit(c.UserContext(), service.SubmissionInput{
		Type:       domain.MessageType(req.Tipo),
		Name:       req.Nombre,
		Email:      req.Email,
		Company:    req.Empresa,
		Body:       req.Mensaje,
		Category:   domain.Category(req.Categoria),
		Department: req.Departamento,
		Priority:   domain.Priority(req.Prioridad),
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.SubmitMessageResponse{
		Success:  true,
		TicketID: result.TicketID,
		SLA: map[string]any{
			"hours":               result.SLA.Hours,
			"dueDate":             result.SLA.DueDate,
			"escalationThreshold": result.SLA.EscalationThreshold,
			"priority":            result.SLA.Priority,
			"businessReason":      result.SLA.BusinessReason,
		},
		Privacy: map[string]any{
			"riskLevel":      result.Privacy.RiskLevel,
			"anonymized":     result.Privacy.RecommendedAnonymization,
			"requiresReview": result.Privacy.RequiresReview,
		},
		Ticket: result.Ticket,
	})
}
