// internal/evaluators/underwriting/handler.go
package underwriting

import (
	"fmt"
	"math"

	"loan-decision-pipeline/internal/models"
)

// Deterministic affordability thresholds.
const (
	EMIThresholdAutoReview = 0.40
	EMIThresholdAutoReject = 0.60
	LTIThresholdReview     = 0.50

	CreditScoreReject = 600
	CreditScoreReview = 700
)

// Evaluate applies the underwriting rule chain to an application. It is a
// pure function: decisions only ever escalate, and reasons accumulate in
// rule order.
func Evaluate(app models.ApplicationData) *models.UnderwritingResult {
	emiRatio := app.EMIRatio()
	lti := app.LTI()

	decision := models.DecisionApproved
	risk := models.RiskLow
	var reasons []string

	if emiRatio > EMIThresholdAutoReject {
		decision = models.DecisionDeclined
		risk = models.RiskHigh
		reasons = append(reasons, fmt.Sprintf(
			"Excessive EMI burden (EMI ratio: %.1f%% exceeds %.0f%% threshold)",
			emiRatio*100, EMIThresholdAutoReject*100))
	} else if emiRatio > EMIThresholdAutoReview {
		decision = models.DecisionReview
		risk = models.RiskMedium
		reasons = append(reasons, fmt.Sprintf(
			"Elevated EMI burden (EMI ratio: %.1f%% exceeds %.0f%% threshold)",
			emiRatio*100, EMIThresholdAutoReview*100))
	}

	if app.CreditScore < CreditScoreReject {
		decision = models.DecisionDeclined
		risk = models.RiskHigh
		reasons = append(reasons, "Very low credit score")
	} else if app.CreditScore < CreditScoreReview && decision != models.DecisionDeclined {
		if decision == models.DecisionApproved {
			decision = models.DecisionReview
			risk = models.RiskMedium
		}
		reasons = append(reasons, "Moderate credit score")
	}

	if app.EmploymentYears < 1 && decision != models.DecisionDeclined {
		if decision == models.DecisionApproved {
			decision = models.DecisionReview
			risk = models.RiskMedium
		}
		reasons = append(reasons, "Insufficient employment history")
	} else if app.BusinessVintageYears < 2 || app.ITRYearsSubmitted < 1 || app.BankStatementMonths < 6 {
		if decision == models.DecisionApproved {
			decision = models.DecisionReview
			risk = models.RiskMedium
		}
		if app.BusinessVintageYears < 2 {
			reasons = append(reasons, "New business (less than 2 years)")
		}
		if app.ITRYearsSubmitted < 1 {
			reasons = append(reasons, "No ITR filed")
		}
		if app.BankStatementMonths < 6 {
			reasons = append(reasons, "Insufficient banking history")
		}
	}

	if lti > LTIThresholdReview && decision == models.DecisionApproved {
		decision = models.DecisionReview
		risk = models.RiskMedium
		reasons = append(reasons, "Elevated loan-to-income ratio")
	}

	if decision == models.DecisionApproved && len(reasons) == 0 {
		reasons = append(reasons, "Good financial profile")
	}

	return &models.UnderwritingResult{
		Decision:    decision,
		Risk:        risk,
		EMIRatio:    math.Round(emiRatio*100) / 100,
		CreditScore: app.CreditScore,
		Reasons:     reasons,
	}
}

// Placeholder is the synthesized result used when no application data is
// available. The reason text is kept as-is even though underwriting itself
// is not gated on verification.
func Placeholder(app models.ApplicationData) *models.UnderwritingResult {
	return &models.UnderwritingResult{
		Decision:    models.DecisionPending,
		Risk:        models.RiskUnknown,
		EMIRatio:    0.0,
		CreditScore: app.CreditScore,
		Reasons:     []string{"Verification must pass before underwriting"},
	}
}
