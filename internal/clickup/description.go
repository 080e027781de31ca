package clickup

import (
	"fmt"
	"strings"

	"github.com/why-platform/buzon-service/internal/domain"
)

// recommendedActions holds the per-category action checklist embedded in the
// ticket description.
var recommendedActions = map[domain.Category]string{
	domain.CategoryQuestion: `- [ ] Revisar pregunta y contexto
- [ ] Buscar información relevante
- [ ] Preparar respuesta completa
- [ ] Enviar respuesta al usuario
- [ ] Marcar como resuelto`,
	domain.CategorySuggestion: `- [ ] Evaluar viabilidad de la sugerencia
- [ ] Consultar con stakeholders relevantes
- [ ] Determinar prioridad y recursos necesarios
- [ ] Comunicar decisión al usuario
- [ ] Si se aprueba, crear plan de implementación`,
	domain.CategoryComplaint: `- [ ] **URGENTE**: Investigar el problema inmediatamente
- [ ] Contactar al usuario para más detalles
- [ ] Identificar causa raíz
- [ ] Implementar solución o plan de acción
- [ ] Seguimiento con el usuario
- [ ] Documentar lecciones aprendidas`,
	domain.CategoryCompliment: `- [ ] Reconocer y agradecer el feedback positivo
- [ ] Compartir con el equipo relevante
- [ ] Considerar para casos de éxito/testimonios
- [ ] Responder al usuario agradeciendo`,
	domain.CategoryBug: `- [ ] **CRÍTICO**: Reproducir el error
- [ ] Evaluar impacto y severidad
- [ ] Asignar a desarrollador/técnico
- [ ] Crear fix y testing
- [ ] Desplegar solución
- [ ] Confirmar resolución con usuario`,
	domain.CategoryOther: `- [ ] Revisar y categorizar correctamente
- [ ] Determinar departamento responsable
- [ ] Definir plan de acción específico
- [ ] Ejecutar y dar seguimiento`,
}

func buildDescription(msg domain.Message, sla domain.SLADescriptor) string {
	var b strings.Builder

	b.WriteString("## Detalles del Ticket\n\n")
	fmt.Fprintf(&b, "**Categoría:** %s\n", title(string(msg.Category)))
	fmt.Fprintf(&b, "**Prioridad:** %s\n", strings.ToUpper(string(msg.Priority)))
	fmt.Fprintf(&b, "**Departamento:** %s\n", orText(msg.Department, "No especificado"))
	fmt.Fprintf(&b, "**Fecha de creación:** %s\n", msg.CreatedAt.Format("02/01/2006 15:04:05"))
	fmt.Fprintf(&b, "**SLA:** %d horas (vence: %s)\n\n", sla.Hours, sla.DueDate.Format("02/01/2006 15:04:05"))

	b.WriteString("## Mensaje Original\n\n")
	fmt.Fprintf(&b, "%q\n\n", msg.Body)

	b.WriteString("## Información del Remitente\n\n")
	fmt.Fprintf(&b, "**Tipo de solicitud:** %s\n", requestKind(msg))
	if msg.Identified() {
		fmt.Fprintf(&b, "**Nombre:** %s\n", msg.Name)
		fmt.Fprintf(&b, "**Email:** %s\n", msg.Email)
		if msg.Company != "" {
			fmt.Fprintf(&b, "**Empresa:** %s\n", msg.Company)
		}
	}

	b.WriteString("\n## Contexto Adicional\n\n")
	fmt.Fprintf(&b, "- **Ticket ID Original:** `%s`\n", msg.TicketID)
	b.WriteString("- **Fuente:** Buzón del Porqué - Plataforma WHY\n")
	fmt.Fprintf(&b, "- **SLA Calculado:** %s\n", sla.BusinessReason)
	fmt.Fprintf(&b, "- **Umbral de Escalamiento:** %d horas\n\n", sla.EscalationThreshold)

	b.WriteString("## Acciones Recomendadas\n\n")
	actions, ok := recommendedActions[msg.Category]
	if !ok {
		actions = recommendedActions[domain.CategoryOther]
	}
	b.WriteString(actions)
	b.WriteString("\n")

	return b.String()
}

// requestKind classifies the submission the way the destination workspace
// organizes requests.
func requestKind(msg domain.Message) string {
	if !msg.Identified() {
		return "Solicitud externa"
	}
	switch msg.Department {
	case "it":
		return "Website / Infraestructura"
	case "administracion", "gerencia":
		return "Administración"
	case "finanzas":
		return "Dynamics / Gestión de datos"
	default:
		return "Interno"
	}
}

func buildContactComment(msg domain.Message) string {
	var b strings.Builder
	b.WriteString("**Información de Contacto Adicional**\n\n")
	if msg.Identified() {
		fmt.Fprintf(&b, "- **Email de contacto:** %s\n", msg.Email)
		b.WriteString("- **Responder preferiblemente por:** Email\n")
		if msg.Company != "" {
			fmt.Fprintf(&b, "- **Contexto empresarial:** %s\n", msg.Company)
		}
	} else {
		b.WriteString("- **Mensaje anónimo** - Sin información de contacto\n")
		fmt.Fprintf(&b, "- **Para seguimiento:** Usar ticket ID `%s`\n", msg.TicketID)
	}
	b.WriteString("\n---\n*Comentario generado automáticamente por Buzón del Porqué*\n")
	return b.String()
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func orText(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
