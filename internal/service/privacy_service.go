package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/why-platform/buzon-service/internal/domain"
)

// contentPattern scores one sensitive-content regex found in message text.
type contentPattern struct {
	re     *regexp.Regexp
	weight int
	risk   string
}

var contentPatterns = []contentPattern{
	{regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`), 5, "posible número de tarjeta en el mensaje"},
	{regexp.MustCompile(`\b\d{7,8}[-.]?\d{1}\b`), 4, "posible RUT en el mensaje"},
	{regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`), 3, "correo electrónico en el mensaje"},
	{regexp.MustCompile(`\b\d{8,15}\b`), 2, "posible teléfono en el mensaje"},
	{regexp.MustCompile(`(?i)(dirección|domicilio|vivo en|mi casa)`), 2, "posible dirección en el mensaje"},
}

const (
	piiFieldWeight        = 3
	quasiIdentifierWeight = 1
)

// PrivacySubject is the full set of attributes evaluated for privacy risk.
type PrivacySubject struct {
	Name      string
	Email     string
	Company   string
	Phone     string
	Body      string
	IPAddress string
	UserAgent string
	Timestamp time.Time
}

// PrivacyService scores submissions for re-identification risk and applies
// tiered anonymization. The assessment is advisory only.
type PrivacyService struct{}

func NewPrivacyService() *PrivacyService {
	return &PrivacyService{}
}

// Assess scores the subject: 3 points per direct identifier present, 1 per
// quasi-identifier, plus weighted content-pattern matches.
func (p *PrivacyService) Assess(subject PrivacySubject) domain.PrivacyAssessment {
	score := 0
	risks := []string{}

	piiFields := map[string]string{
		"nombre":   subject.Name,
		"email":    subject.Email,
		"empresa":  subject.Company,
		"telefono": subject.Phone,
	}
	for field, value := range piiFields {
		if strings.TrimSpace(value) != "" {
			score += piiFieldWeight
			risks = append(risks, fmt.Sprintf("campo de identificación directa: %s", field))
		}
	}

	if subject.IPAddress != "" {
		score += quasiIdentifierWeight
		risks = append(risks, "cuasi-identificador: ip_address")
	}
	if subject.UserAgent != "" {
		score += quasiIdentifierWeight
		risks = append(risks, "cuasi-identificador: user_agent")
	}
	if !subject.Timestamp.IsZero() {
		score += quasiIdentifierWeight
		risks = append(risks, "cuasi-identificador: timestamp")
	}

	for _, pattern := range contentPatterns {
		if pattern.re.MatchString(subject.Body) {
			score += pattern.weight
			risks = append(risks, pattern.risk)
		}
	}

	level := riskBand(score)
	return domain.PrivacyAssessment{
		RiskScore:                score,
		RiskLevel:                level,
		Risks:                    risks,
		RecommendedAnonymization: anonymizationFor(level),
		RequiresReview:           level == domain.RiskCritical,
	}
}

func riskBand(score int) domain.RiskLevel {
	switch {
	case score >= 10:
		return domain.RiskCritical
	case score >= 6:
		return domain.RiskHigh
	case score >= 3:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func anonymizationFor(level domain.RiskLevel) domain.AnonymizationLevel {
	switch level {
	case domain.RiskCritical:
		return domain.AnonymizeComplete
	case domain.RiskHigh:
		return domain.AnonymizeStrict
	case domain.RiskMedium:
		return domain.AnonymizeStandard
	default:
		return domain.AnonymizeMinimal
	}
}

// Anonymize rewrites the subject according to the given level:
// MINIMAL keeps everything, STANDARD drops quasi-identifiers, STRICT also
// masks direct identifiers, and COMPLETE replaces identity with a stable
// anonymous handle and scrubs matched content patterns from the body.
func (p *PrivacyService) Anonymize(subject PrivacySubject, level domain.AnonymizationLevel) PrivacySubject {
	out := subject
	switch level {
	case domain.AnonymizeMinimal:
		return out
	case domain.AnonymizeStandard:
		out.IPAddress = ""
		out.UserAgent = ""
		return out
	case domain.AnonymizeStrict:
		out.IPAddress = ""
		out.UserAgent = ""
		out.Name = maskValue(out.Name)
		out.Email = maskEmail(out.Email)
		out.Phone = maskValue(out.Phone)
		return out
	case domain.AnonymizeComplete:
		handle := AnonymousHandle(subject.Email, subject.Name)
		out = PrivacySubject{
			Name:      handle,
			Body:      scrubBody(subject.Body),
			Timestamp: subject.Timestamp,
		}
		return out
	default:
		return out
	}
}

// AnonymousHandle derives a short stable pseudonym from sender identity so
// repeat submissions stay correlatable without being identifiable.
func AnonymousHandle(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "anon-" + hex.EncodeToString(h[:])[:12]
}

func maskValue(v string) string {
	runes := []rune(strings.TrimSpace(v))
	if len(runes) == 0 {
		return ""
	}
	if len(runes) <= 2 {
		return string(runes[0]) + "***"
	}
	return string(runes[0]) + "***" + string(runes[len(runes)-1])
}

func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return maskValue(email)
	}
	return maskValue(email[:at]) + "@" + email[at+1:]
}

func scrubBody(body string) string {
	out := body
	for _, pattern := range contentPatterns {
		if pattern.risk == "posible dirección en el mensaje" {
			continue
		}
		out = pattern.re.ReplaceAllString(out, "[REDACTADO]")
	}
	return out
}
