package service

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/why-platform/buzon-service/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minNameLength    = 2
	maxNameLength    = 50
	maxEmailLength   = 100
	minMessageLength = 10
	maxMessageLength = 500
)

// Validator checks submissions field by field and collects every failure,
// so senders see all problems at once instead of one per round trip.
type Validator struct {
	allowedDomains []string
}

// NewValidator builds a validator restricted to the given email domains.
// An empty list allows any domain.
func NewValidator(allowedDomains []string) *Validator {
	normalized := make([]string, 0, len(allowedDomains))
	for _, d := range allowedDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			normalized = append(normalized, d)
		}
	}
	return &Validator{allowedDomains: normalized}
}

// SubmissionInput is the raw, untrusted form content.
type SubmissionInput struct {
	Type       domain.MessageType
	Name       string
	Email      string
	Company    string
	Body       string
	Category   domain.Category
	Department string
	Priority   domain.Priority
}

// Validate returns a map of field name to Spanish error message. An empty
// map means the submission is acceptable.
func (v *Validator) Validate(in SubmissionInput) map[string]string {
	errs := make(map[string]string)

	switch {
	case !domain.ValidType(in.Type):
		errs["tipo"] = "Selecciona si tu mensaje es identificado o anónimo"
	case in.Type == domain.MessageTypeIdentified:
		v.validateName(in.Name, errs)
		v.validateEmail(in.Email, errs)
	default:
		// an anonymous submission must not leak identity
		if strings.TrimSpace(in.Name) != "" {
			errs["nombre"] = "Un mensaje anónimo no debe incluir nombre"
		}
		if strings.TrimSpace(in.Email) != "" {
			errs["email"] = "Un mensaje anónimo no debe incluir correo electrónico"
		}
		if strings.TrimSpace(in.Company) != "" {
			errs["empresa"] = "Un mensaje anónimo no debe incluir empresa"
		}
	}

	v.validateBody(in.Body, errs)

	if in.Category == "" {
		errs["categoria"] = "Por favor selecciona una categoría para tu mensaje"
	} else if !domain.ValidCategory(in.Category) {
		errs["categoria"] = "Por favor selecciona una categoría para tu mensaje"
	}

	if in.Priority != "" && !domain.ValidPriority(in.Priority) {
		errs["prioridad"] = "Prioridad inválida"
	}

	return errs
}

func (v *Validator) validateName(name string, errs map[string]string) {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		errs["nombre"] = "El nombre es requerido"
	case utf8.RuneCountInString(trimmed) < minNameLength:
		errs["nombre"] = fmt.Sprintf("El nombre debe tener al menos %d caracteres", minNameLength)
	case utf8.RuneCountInString(trimmed) > maxNameLength:
		errs["nombre"] = fmt.Sprintf("El nombre no puede exceder %d caracteres", maxNameLength)
	}
}

func (v *Validator) validateEmail(email string, errs map[string]string) {
	trimmed := strings.TrimSpace(email)
	switch {
	case trimmed == "":
		errs["email"] = "El correo electrónico es requerido"
	case !emailPattern.MatchString(trimmed):
		errs["email"] = "Por favor ingresa un correo electrónico válido"
	case utf8.RuneCountInString(trimmed) > maxEmailLength:
		errs["email"] = fmt.Sprintf("El correo electrónico no puede exceder %d caracteres", maxEmailLength)
	case !v.domainAllowed(trimmed):
		errs["email"] = fmt.Sprintf("Solo se permiten correos de los dominios %s", strings.Join(v.allowedDomains, ", "))
	}
}

func (v *Validator) validateBody(body string, errs map[string]string) {
	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "":
		errs["mensaje"] = "El mensaje es requerido"
	case utf8.RuneCountInString(trimmed) < minMessageLength:
		errs["mensaje"] = fmt.Sprintf("El mensaje debe tener al menos %d caracteres", minMessageLength)
	case utf8.RuneCountInString(trimmed) > maxMessageLength:
		errs["mensaje"] = fmt.Sprintf("El mensaje no puede exceder %d caracteres", maxMessageLength)
	}
}

func (v *Validator) domainAllowed(email string) bool {
	if len(v.allowedDomains) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	emailDomain := strings.ToLower(email[at+1:])
	for _, d := range v.allowedDomains {
		if emailDomain == d {
			return true
		}
	}
	return false
}
