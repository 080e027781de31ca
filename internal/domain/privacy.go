package domain

// RiskLevel bands the privacy risk score of a submission.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// AnonymizationLevel governs how much personal data is retained.
type AnonymizationLevel string

const (
	AnonymizeMinimal  AnonymizationLevel = "MINIMAL"
	AnonymizeStandard AnonymizationLevel = "STANDARD"
	AnonymizeStrict   AnonymizationLevel = "STRICT"
	AnonymizeComplete AnonymizationLevel = "COMPLETE"
)

// PrivacyAssessment is the advisory risk evaluation of a submission.
// It is derived per message and never stored.
type PrivacyAssessment struct {
	RiskScore                int
	RiskLevel                RiskLevel
	Risks                    []string
	RecommendedAnonymization AnonymizationLevel
	RequiresReview           bool
}
