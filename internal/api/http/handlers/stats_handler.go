package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/why-platform/buzon-service/internal/observability"
	"github.com/why-platform/buzon-service/internal/repository"
	"github.com/why-platform/buzon-service/internal/service"
	"github.com/why-platform/buzon-service/internal/webhook"
	apperrors "github.com/why-platform/buzon-service/pkg/util"
)

// StatsHandler serves the operator dashboard numbers.
type StatsHandler struct {
	metrics     *observability.Metrics
	states      repository.TicketStateRepository
	sla         *service.SLAService
	escalations *service.EscalationService
	upstream    *webhook.Client
}

// NewStatsHandler constructs handler.
func NewStatsHandler(
	metrics *observability.Metrics,
	states repository.TicketStateRepository,
	sla *service.SLAService,
	escalations *service.EscalationService,
	upstream *webhook.Client,
) *StatsHandler {
	return &StatsHandler{metrics: metrics, states: states, sla: sla, escalations: escalations, upstream: upstream}
}

// Stats handles GET /stats. The upstream numbers are best-effort: a failed
// passthrough surfaces the error without failing the local report.
func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	tickets, err := h.states.List(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}

	escalationReport, err := h.escalations.Report(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}

	data := fiber.Map{
		"counters":    h.metrics.Snapshot(),
		"sla":         h.sla.Report(tickets),
		"escalations": escalationReport,
	}
	if h.upstream != nil {
		if upstreamStats, err := h.upstream.Stats(c.UserContext()); err != nil {
			data["upstream"] = fiber.Map{"error": err.Error()}
		} else {
			data["upstream"] = upstreamStats
		}
	}

	return c.JSON(fiber.Map{"data": data})
}
