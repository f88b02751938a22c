// internal/evaluators/risk/handler.go
package risk

import (
	"math"

	"loan-decision-pipeline/internal/models"
)

// Band thresholds over the clamped additive score.
const (
	BandHighThreshold   = 0.70
	BandMediumThreshold = 0.40
)

// Assess fuses verification, underwriting, and raw application signals into
// one additive risk score. Factors are independent: several may fire at
// once, each contributing its fixed increment.
func Assess(
	verification *models.VerificationResult,
	underwriting *models.UnderwritingResult,
	app models.ApplicationData,
) *models.RiskResult {
	score := 0.0
	var reasons []string

	if !verification.Verified() {
		score += 0.4
		reasons = append(reasons, "Document verification failed")
	}

	uwRisk := models.RiskHigh
	emiRatio := 0.0
	if underwriting != nil {
		uwRisk = underwriting.Risk
		emiRatio = underwriting.EMIRatio
	}

	switch uwRisk {
	case models.RiskHigh:
		score += 0.4
		reasons = append(reasons, "High underwriting risk")
	case models.RiskMedium:
		score += 0.2
		reasons = append(reasons, "Underwriting marked medium risk")
	}

	if emiRatio >= 0.6 {
		score += 0.4
		reasons = append(reasons, "Excessive EMI burden")
	} else if emiRatio >= 0.4 {
		score += 0.2
		reasons = append(reasons, "Elevated EMI burden")
	}

	if app.CreditScore < 600 {
		score += 0.3
		reasons = append(reasons, "Low credit score")
	} else if app.CreditScore < 700 {
		score += 0.15
	}

	if app.RecentDelinquencyMonths >= 1 {
		score += 0.2
		reasons = append(reasons, "Recent delinquency observed")
	}

	if app.UrgencyFlag {
		score += 0.1
		reasons = append(reasons, "High urgency behavior")
	}

	if app.Behavioral.StressDetected {
		score += 0.1
		reasons = append(reasons, "Stress signals detected")
	}
	if app.Behavioral.InconsistentStatements {
		score += 0.1
		reasons = append(reasons, "Inconsistent statements detected")
	}

	if app.AddressChangesLast12M >= 3 {
		score += 0.1
		reasons = append(reasons, "Frequent address changes")
	}

	if app.GeoRiskFlag {
		score += 0.1
		reasons = append(reasons, "Geo-risk flag active")
	}

	// Computed independently of underwriting's lti on purpose.
	lti := app.LTI()
	if lti >= 0.8 {
		score += 0.2
		reasons = append(reasons, "High loan-to-income ratio")
	} else if lti >= 0.6 {
		score += 0.1
		reasons = append(reasons, "Elevated loan-to-income ratio")
	}

	score = math.Round(score*100) / 100
	if score > 1.0 {
		score = 1.0
	}

	band := models.RiskLow
	if score >= BandHighThreshold {
		band = models.RiskHigh
	} else if score >= BandMediumThreshold {
		band = models.RiskMedium
	}

	// A flawless profile still shows a small residual score rather than an
	// implausibly perfect zero.
	if band == models.RiskLow && score == 0.0 {
		score = 0.18
	}

	if len(reasons) == 0 {
		reasons = []string{"Financial profile appears stable"}
	}

	return &models.RiskResult{
		RiskBand:         band,
		RiskScore:        score,
		RiskScorePercent: int(math.Round(score * 100)),
		Reasons:          reasons,
	}
}
