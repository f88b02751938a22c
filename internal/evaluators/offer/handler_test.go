package offer

import (
	"context"
	"errors"
	"testing"

	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func lowRisk() *models.RiskResult {
	return &models.RiskResult{RiskBand: models.RiskLow, RiskScore: 0.18}
}

func approvedUnderwriting() *models.UnderwritingResult {
	return &models.UnderwritingResult{Decision: models.DecisionApproved, Risk: models.RiskLow}
}

func TestExecuteHighRiskBlocksOffer(t *testing.T) {
	h := NewHandler(&fakeGenerator{}, logger.NewNoOpLogger())

	result := h.Execute(context.Background(), models.ApplicationData{},
		approvedUnderwriting(), &models.RiskResult{RiskBand: models.RiskHigh})

	assert.False(t, result.OfferAvailable)
	assert.Equal(t, "High risk profile", result.Reason)
}

func TestExecuteNilRiskTreatedAsHigh(t *testing.T) {
	h := NewHandler(&fakeGenerator{}, logger.NewNoOpLogger())

	result := h.Execute(context.Background(), models.ApplicationData{}, approvedUnderwriting(), nil)

	assert.False(t, result.OfferAvailable)
}

func TestExecuteLowRiskTerms(t *testing.T) {
	gen := &fakeGenerator{text: "We are pleased to offer you the loan."}
	h := NewHandler(gen, logger.NewNoOpLogger())
	app := models.ApplicationData{
		MonthlyIncome: 100000,
		LoanAmount:    500000,
		Currency:      "INR",
	}

	result := h.Execute(context.Background(), app, approvedUnderwriting(), lowRisk())

	require.True(t, result.OfferAvailable)
	assert.Equal(t, 500000.0, result.LoanAmount)
	assert.Equal(t, 10.5, result.InterestRate)
	assert.Equal(t, 60, result.TenureMonths)
	assert.Equal(t, "We are pleased to offer you the loan.", result.Message)
	assert.Contains(t, gen.prompt, "₹500,000")
	assert.Contains(t, gen.prompt, "10.5%")
}

func TestExecuteMediumRiskTerms(t *testing.T) {
	h := NewHandler(&fakeGenerator{text: "Offer ready."}, logger.NewNoOpLogger())
	app := models.ApplicationData{MonthlyIncome: 50000, LoanAmount: 400000}

	result := h.Execute(context.Background(), app, approvedUnderwriting(),
		&models.RiskResult{RiskBand: models.RiskMedium})

	require.True(t, result.OfferAvailable)
	assert.Equal(t, 13.5, result.InterestRate)
	assert.Equal(t, 36, result.TenureMonths)
}

func TestExecuteAffordabilityCapsAmount(t *testing.T) {
	h := NewHandler(&fakeGenerator{text: "Offer ready."}, logger.NewNoOpLogger())
	app := models.ApplicationData{MonthlyIncome: 10000, LoanAmount: 5000000}

	result := h.Execute(context.Background(), app, approvedUnderwriting(), lowRisk())

	assert.Equal(t, 200000.0, result.LoanAmount)
}

func TestExecuteUnknownCurrencyPassesThrough(t *testing.T) {
	gen := &fakeGenerator{text: "Offer ready."}
	h := NewHandler(gen, logger.NewNoOpLogger())
	app := models.ApplicationData{MonthlyIncome: 100000, LoanAmount: 100000, Currency: "jpy"}

	h.Execute(context.Background(), app, approvedUnderwriting(), lowRisk())

	assert.Contains(t, gen.prompt, "JPY100,000")
}

func TestExecuteGenerationFailureFallsBack(t *testing.T) {
	h := NewHandler(&fakeGenerator{err: errors.New("model down")}, logger.NewNoOpLogger())
	app := models.ApplicationData{MonthlyIncome: 100000, LoanAmount: 100000}

	result := h.Execute(context.Background(), app, approvedUnderwriting(), lowRisk())

	require.True(t, result.OfferAvailable)
	assert.Equal(t, FallbackMessage, result.Message)
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "0", groupThousands(0))
	assert.Equal(t, "999", groupThousands(999))
	assert.Equal(t, "1,000", groupThousands(1000))
	assert.Equal(t, "200,000", groupThousands(200000))
	assert.Equal(t, "1,234,567", groupThousands(1234567))
}
