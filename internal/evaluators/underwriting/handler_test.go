package underwriting

import (
	"testing"

	"loan-decision-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strongApplication() models.ApplicationData {
	return models.ApplicationData{
		MonthlyIncome:        100000,
		ExistingEMI:          10000,
		LoanAmount:           300000,
		CreditScore:          760,
		EmploymentYears:      5,
		BusinessVintageYears: 4,
		ITRYearsSubmitted:    3,
		BankStatementMonths:  12,
	}
}

func TestEvaluateGoodProfile(t *testing.T) {
	result := Evaluate(strongApplication())

	assert.Equal(t, models.DecisionApproved, result.Decision)
	assert.Equal(t, models.RiskLow, result.Risk)
	assert.Equal(t, 0.1, result.EMIRatio)
	assert.Equal(t, []string{"Good financial profile"}, result.Reasons)
}

func TestEvaluateExcessiveEMIDeclines(t *testing.T) {
	app := strongApplication()
	app.ExistingEMI = 70000

	result := Evaluate(app)

	assert.Equal(t, models.DecisionDeclined, result.Decision)
	assert.Equal(t, models.RiskHigh, result.Risk)
	assert.Contains(t, result.Reasons[0], "Excessive EMI burden")
	assert.Contains(t, result.Reasons[0], "exceeds 60% threshold")
}

func TestEvaluateElevatedEMIReviews(t *testing.T) {
	app := strongApplication()
	app.ExistingEMI = 45000

	result := Evaluate(app)

	assert.Equal(t, models.DecisionReview, result.Decision)
	assert.Equal(t, models.RiskMedium, result.Risk)
	assert.Contains(t, result.Reasons[0], "Elevated EMI burden")
}

func TestEvaluateEMIBoundaryIsExclusive(t *testing.T) {
	app := strongApplication()
	app.ExistingEMI = 60000 // exactly 0.60

	result := Evaluate(app)

	assert.Equal(t, models.DecisionReview, result.Decision)
	assert.Contains(t, result.Reasons[0], "Elevated EMI burden")
}

func TestEvaluateZeroIncomeWorstCaseRatio(t *testing.T) {
	app := strongApplication()
	app.MonthlyIncome = 0

	result := Evaluate(app)

	assert.Equal(t, models.DecisionDeclined, result.Decision)
	assert.Equal(t, 1.0, result.EMIRatio)
}

func TestEvaluateVeryLowCreditScoreOverridesReview(t *testing.T) {
	app := strongApplication()
	app.ExistingEMI = 45000
	app.CreditScore = 550

	result := Evaluate(app)

	assert.Equal(t, models.DecisionDeclined, result.Decision)
	assert.Equal(t, models.RiskHigh, result.Risk)
	assert.Contains(t, result.Reasons, "Very low credit score")
}

func TestEvaluateModerateCreditScoreEscalatesFromApproved(t *testing.T) {
	app := strongApplication()
	app.CreditScore = 650

	result := Evaluate(app)

	assert.Equal(t, models.DecisionReview, result.Decision)
	assert.Contains(t, result.Reasons, "Moderate credit score")
}

func TestEvaluateInsufficientEmployment(t *testing.T) {
	app := strongApplication()
	app.EmploymentYears = 0.5

	result := Evaluate(app)

	assert.Equal(t, models.DecisionReview, result.Decision)
	assert.Contains(t, result.Reasons, "Insufficient employment history")
}

func TestEvaluateBusinessDocumentationGaps(t *testing.T) {
	app := strongApplication()
	app.BusinessVintageYears = 1
	app.ITRYearsSubmitted = 0
	app.BankStatementMonths = 3

	result := Evaluate(app)

	assert.Equal(t, models.DecisionReview, result.Decision)
	assert.Equal(t, []string{
		"New business (less than 2 years)",
		"No ITR filed",
		"Insufficient banking history",
	}, result.Reasons)
}

func TestEvaluateElevatedLTIOnlyEscalatesFromApproved(t *testing.T) {
	app := strongApplication()
	app.LoanAmount = 700000 // lti ~0.58

	result := Evaluate(app)

	assert.Equal(t, models.DecisionReview, result.Decision)
	assert.Contains(t, result.Reasons, "Elevated loan-to-income ratio")

	// Already in review from another rule: lti does not append.
	app.CreditScore = 650
	result = Evaluate(app)
	assert.NotContains(t, result.Reasons, "Elevated loan-to-income ratio")
}

func TestEvaluateDeclinedNeverDowngrades(t *testing.T) {
	app := strongApplication()
	app.ExistingEMI = 70000
	app.CreditScore = 760

	result := Evaluate(app)

	require.Equal(t, models.DecisionDeclined, result.Decision)
	assert.Equal(t, models.RiskHigh, result.Risk)
}

func TestPlaceholderShape(t *testing.T) {
	result := Placeholder(models.ApplicationData{CreditScore: 640})

	assert.Equal(t, models.DecisionPending, result.Decision)
	assert.Equal(t, models.RiskUnknown, result.Risk)
	assert.Equal(t, 0.0, result.EMIRatio)
	assert.Equal(t, 640.0, result.CreditScore)
	assert.Equal(t, []string{"Verification must pass before underwriting"}, result.Reasons)
}
