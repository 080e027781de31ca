package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/why-platform/buzon-service/internal/service"
)

// ConfigHandler serves the SLA tables for display in the intake form.
type ConfigHandler struct {
	sla *service.SLAService
}

// NewConfigHandler constructs handler.
func NewConfigHandler(sla *service.SLAService) *ConfigHandler {
	return &ConfigHandler{sla: sla}
}

// SLA handles GET /api/v1/config/sla.
func (h *ConfigHandler) SLA(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.sla.Configuration()})
}
