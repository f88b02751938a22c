package risk

import (
	"testing"

	"loan-decision-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
)

func verifiedResult() *models.VerificationResult {
	return &models.VerificationResult{Status: models.VerificationVerified, Confidence: 0.8}
}

func lowRiskUnderwriting() *models.UnderwritingResult {
	return &models.UnderwritingResult{
		Decision: models.DecisionApproved,
		Risk:     models.RiskLow,
		EMIRatio: 0.1,
	}
}

func cleanApplication() models.ApplicationData {
	return models.ApplicationData{
		MonthlyIncome: 100000,
		LoanAmount:    300000,
		CreditScore:   760,
	}
}

func TestAssessCleanProfileGetsResidualScore(t *testing.T) {
	result := Assess(verifiedResult(), lowRiskUnderwriting(), cleanApplication())

	assert.Equal(t, models.RiskLow, result.RiskBand)
	assert.Equal(t, 0.18, result.RiskScore)
	assert.Equal(t, 18, result.RiskScorePercent)
	assert.Equal(t, []string{"Financial profile appears stable"}, result.Reasons)
}

func TestAssessModerateCreditScoreKeepsResidualQuirkAway(t *testing.T) {
	app := cleanApplication()
	app.CreditScore = 650

	result := Assess(verifiedResult(), lowRiskUnderwriting(), app)

	// 0.15 is non-zero, so the 0.18 substitution must not apply.
	assert.Equal(t, 0.15, result.RiskScore)
	assert.Equal(t, models.RiskLow, result.RiskBand)
	assert.Equal(t, []string{"Financial profile appears stable"}, result.Reasons)
}

func TestAssessVerificationFailureAddsWeight(t *testing.T) {
	failed := &models.VerificationResult{Status: models.VerificationFailed}

	result := Assess(failed, lowRiskUnderwriting(), cleanApplication())

	assert.Equal(t, 0.4, result.RiskScore)
	assert.Equal(t, models.RiskMedium, result.RiskBand)
	assert.Contains(t, result.Reasons, "Document verification failed")
}

func TestAssessBandBoundaries(t *testing.T) {
	// Verification failed (0.4) + medium underwriting (0.2) + elevated EMI
	// (0.2) = 0.8 -> HIGH.
	uw := &models.UnderwritingResult{Risk: models.RiskMedium, EMIRatio: 0.45}
	failed := &models.VerificationResult{Status: models.VerificationFailed}

	result := Assess(failed, uw, cleanApplication())

	assert.Equal(t, 0.8, result.RiskScore)
	assert.Equal(t, models.RiskHigh, result.RiskBand)
}

func TestAssessExactMediumThreshold(t *testing.T) {
	// Medium underwriting (0.2) + recent delinquency (0.2) = 0.40 exactly.
	uw := &models.UnderwritingResult{Risk: models.RiskMedium, EMIRatio: 0.1}
	app := cleanApplication()
	app.RecentDelinquencyMonths = 2

	result := Assess(verifiedResult(), uw, app)

	assert.Equal(t, 0.4, result.RiskScore)
	assert.Equal(t, models.RiskMedium, result.RiskBand)
}

func TestAssessScoreClampedToOne(t *testing.T) {
	failed := &models.VerificationResult{Status: models.VerificationFailed}
	uw := &models.UnderwritingResult{Risk: models.RiskHigh, EMIRatio: 0.75}
	app := models.ApplicationData{
		CreditScore:             550,
		RecentDelinquencyMonths: 3,
		UrgencyFlag:             true,
		GeoRiskFlag:             true,
		AddressChangesLast12M:   4,
		Behavioral: models.BehavioralFlags{
			StressDetected:         true,
			InconsistentStatements: true,
		},
	}

	result := Assess(failed, uw, app)

	assert.Equal(t, 1.0, result.RiskScore)
	assert.Equal(t, models.RiskHigh, result.RiskBand)
	assert.Equal(t, 100, result.RiskScorePercent)
}

func TestAssessBehavioralAndGeoFactors(t *testing.T) {
	app := cleanApplication()
	app.Behavioral.StressDetected = true
	app.GeoRiskFlag = true

	result := Assess(verifiedResult(), lowRiskUnderwriting(), app)

	assert.Equal(t, 0.2, result.RiskScore)
	assert.Contains(t, result.Reasons, "Stress signals detected")
	assert.Contains(t, result.Reasons, "Geo-risk flag active")
}

func TestAssessIndependentLTIComputation(t *testing.T) {
	app := cleanApplication()
	app.LoanAmount = 1000000 // lti ~0.83

	result := Assess(verifiedResult(), lowRiskUnderwriting(), app)

	assert.Equal(t, 0.2, result.RiskScore)
	assert.Contains(t, result.Reasons, "High loan-to-income ratio")
}

func TestAssessZeroIncomeWorstCaseLTI(t *testing.T) {
	app := models.ApplicationData{CreditScore: 760}

	result := Assess(verifiedResult(), lowRiskUnderwriting(), app)

	assert.Equal(t, 0.2, result.RiskScore)
	assert.Contains(t, result.Reasons, "High loan-to-income ratio")
}

func TestAssessNilUnderwritingDefaultsToHigh(t *testing.T) {
	result := Assess(verifiedResult(), nil, cleanApplication())

	assert.Equal(t, 0.4, result.RiskScore)
	assert.Contains(t, result.Reasons, "High underwriting risk")
}
