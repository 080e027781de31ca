package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/why-platform/buzon-service/internal/domain"
)

func TestAssessAnonymousMinimalRisk(t *testing.T) {
	p := NewPrivacyService()
	assessment := p.Assess(PrivacySubject{Body: "Todo funciona bien, gracias"})
	assert.Equal(t, 0, assessment.RiskScore)
	assert.Equal(t, domain.RiskLow, assessment.RiskLevel)
	assert.Equal(t, domain.AnonymizeMinimal, assessment.RecommendedAnonymization)
	assert.False(t, assessment.RequiresReview)
}

func TestAssessPIIFields(t *testing.T) {
	p := NewPrivacyService()

	assessment := p.Assess(PrivacySubject{
		Name: "Juan Pérez",
		Body: "Necesito ayuda con el sistema",
	})
	assert.Equal(t, 3, assessment.RiskScore)
	assert.Equal(t, domain.RiskMedium, assessment.RiskLevel)

	assessment = p.Assess(PrivacySubject{
		Name:  "Juan Pérez",
		Email: "juan@ecomac.cl",
		Body:  "Necesito ayuda con el sistema",
	})
	// nombre and email fields, no content patterns in the body
	assert.Equal(t, 6, assessment.RiskScore)
	assert.Equal(t, domain.RiskHigh, assessment.RiskLevel)
	assert.Equal(t, domain.AnonymizeStrict, assessment.RecommendedAnonymization)
}

func TestAssessMoreIdentifiersNeverLowerScore(t *testing.T) {
	p := NewPrivacyService()
	base := p.Assess(PrivacySubject{Name: "Ana", Body: "mensaje de prueba general"})
	withMore := p.Assess(PrivacySubject{
		Name:    "Ana",
		Email:   "ana@ecomac.cl",
		Company: "Ecomac",
		Body:    "mensaje de prueba general",
	})
	assert.Greater(t, withMore.RiskScore, base.RiskScore)
}

func TestAssessContentPatterns(t *testing.T) {
	p := NewPrivacyService()

	cases := []struct {
		name   string
		body   string
		weight int
	}{
		{"credit card", "mi tarjeta 4111 1111 1111 1111 fue rechazada", 5},
		{"rut", "mi rut es 12345678-9 por si lo necesitan", 4},
		{"email in body", "escríbeme a maria@ejemplo.com por favor", 3},
		{"address keyword", "vivo en el edificio central", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assessment := p.Assess(PrivacySubject{Body: tc.body})
			assert.GreaterOrEqual(t, assessment.RiskScore, tc.weight)
			assert.NotEmpty(t, assessment.Risks)
		})
	}
}

func TestAssessQuasiIdentifiers(t *testing.T) {
	p := NewPrivacyService()
	assessment := p.Assess(PrivacySubject{
		Body:      "sin datos personales aqui",
		IPAddress: "10.0.0.1",
		UserAgent: "Mozilla/5.0",
		Timestamp: time.Now(),
	})
	assert.Equal(t, 3, assessment.RiskScore)
	assert.Equal(t, domain.RiskMedium, assessment.RiskLevel)
}

func TestAssessCriticalRequiresReview(t *testing.T) {
	p := NewPrivacyService()
	assessment := p.Assess(PrivacySubject{
		Name:  "Juan Pérez",
		Email: "juan@ecomac.cl",
		Body:  "mi tarjeta es 4111 1111 1111 1111",
	})
	assert.GreaterOrEqual(t, assessment.RiskScore, 10)
	assert.Equal(t, domain.RiskCritical, assessment.RiskLevel)
	assert.Equal(t, domain.AnonymizeComplete, assessment.RecommendedAnonymization)
	assert.True(t, assessment.RequiresReview)
}

func TestAnonymizeTiers(t *testing.T) {
	p := NewPrivacyService()
	subject := PrivacySubject{
		Name:      "Juan Pérez",
		Email:     "juan.perez@ecomac.cl",
		Company:   "Ecomac",
		Body:      "contacto: otro@ejemplo.com",
		IPAddress: "10.0.0.1",
		UserAgent: "Mozilla/5.0",
		Timestamp: time.Now(),
	}

	t.Run("minimal keeps everything", func(t *testing.T) {
		out := p.Anonymize(subject, domain.AnonymizeMinimal)
		assert.Equal(t, subject, out)
	})

	t.Run("standard drops quasi identifiers", func(t *testing.T) {
		out := p.Anonymize(subject, domain.AnonymizeStandard)
		assert.Empty(t, out.IPAddress)
		assert.Empty(t, out.UserAgent)
		assert.Equal(t, subject.Name, out.Name)
	})

	t.Run("strict masks identifiers", func(t *testing.T) {
		out := p.Anonymize(subject, domain.AnonymizeStrict)
		assert.NotEqual(t, subject.Name, out.Name)
		assert.Contains(t, out.Email, "@ecomac.cl")
		assert.NotContains(t, out.Email, "juan.perez")
	})

	t.Run("complete replaces identity and scrubs body", func(t *testing.T) {
		out := p.Anonymize(subject, domain.AnonymizeComplete)
		assert.True(t, len(out.Name) > 0 && out.Name != subject.Name)
		assert.Empty(t, out.Email)
		assert.Empty(t, out.Company)
		assert.NotContains(t, out.Body, "otro@ejemplo.com")
		assert.Contains(t, out.Body, "[REDACTADO]")
	})
}

func TestAnonymousHandleStable(t *testing.T) {
	first := AnonymousHandle("juan@ecomac.cl", "Juan")
	second := AnonymousHandle("juan@ecomac.cl", "Juan")
	other := AnonymousHandle("ana@ecomac.cl", "Ana")
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
}
