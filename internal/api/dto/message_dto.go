package dto

// SubmitMessageRequest is the intake form payload.
type SubmitMessageRequest struct {
	Tipo         string `json:"tipo"`
	Nombre       string `json:"nombre"`
	Email        string `json:"email"`
	Empresa      string `json:"empresa"`
	Mensaje      string `json:"mensaje"`
	Categoria    string `json:"categoria"`
	Departamento string `json:"departamento"`
	Prioridad    string `json:"prioridad"`
}

// SubmitMessageResponse confirms an accepted submission.
type SubmitMessageResponse struct {
	Success  bool           `json:"success"`
	TicketID string         `json:"ticketId"`
	SLA      map[string]any `json:"sla"`
	Privacy  map[string]any `json:"privacy"`
	Ticket   any            `json:"ticket,omitempty"`
}
