package orchestrator

import (
	"testing"

	"loan-decision-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
)

func approvedLowContext() actionContext {
	return actionContext{
		hasApplication:  true,
		verification:    &models.VerificationResult{Status: models.VerificationVerified, Confidence: 0.8},
		underwriting:    &models.UnderwritingResult{Decision: models.DecisionApproved, Risk: models.RiskLow},
		risk:            &models.RiskResult{RiskBand: models.RiskLow, RiskScore: 0.18},
		offer:           &models.OfferResult{OfferAvailable: true},
		intentConfident: true,
	}
}

func TestArbitrateBlockTransactionRequiresFraudScore(t *testing.T) {
	c := approvedLowContext()

	actions := arbitrateActions([]string{models.ActionBlockTransaction, models.ActionApplyLoan}, c)
	assert.NotContains(t, actions, models.ActionBlockTransaction)

	c.app = models.ApplicationData{FraudScore: 0.8, HasFraudScore: true}
	actions = arbitrateActions([]string{models.ActionBlockTransaction, models.ActionApplyLoan}, c)
	// Survives the fraud check but is then dropped by the permission matrix.
	assert.NotContains(t, actions, models.ActionBlockTransaction)
}

func TestArbitrateTalkToHumanOnlyForDeclinedOrHighRisk(t *testing.T) {
	c := approvedLowContext()
	actions := arbitrateActions([]string{models.ActionTalkToHuman, models.ActionApplyLoan}, c)
	assert.NotContains(t, actions, models.ActionTalkToHuman)

	c.underwriting.Decision = models.DecisionDeclined
	actions = arbitrateActions([]string{models.ActionTalkToHuman}, c)
	assert.Contains(t, actions, models.ActionTalkToHuman)
}

func TestArbitrateMatrixIntersectionWithFallback(t *testing.T) {
	c := approvedLowContext()

	// None of the proposals survive the LOW/APPROVED cell, so the first two
	// matrix entries come back, then final approval prepends apply_loan.
	actions := arbitrateActions([]string{models.ActionUploadDocuments}, c)
	assert.Equal(t, []string{models.ActionApplyLoan, "offer", "confirm"}, actions)
}

func TestArbitrateAlwaysPermittedActionsSurviveMatrix(t *testing.T) {
	c := approvedLowContext()
	c.offer = &models.OfferResult{OfferAvailable: false}

	actions := arbitrateActions([]string{models.ActionCheckEligibility, models.ActionClarifyIntent}, c)
	assert.Contains(t, actions, models.ActionCheckEligibility)
	// Final approval does not hold, so clarify_intent survives too.
	assert.Contains(t, actions, models.ActionClarifyIntent)
}

func TestArbitrateLowIntentConfidenceStripsApplyLoan(t *testing.T) {
	c := approvedLowContext()
	c.intentConfident = false

	actions := arbitrateActions([]string{models.ActionApplyLoan}, c)

	assert.NotContains(t, actions, models.ActionApplyLoan)
	assert.Equal(t, models.ActionClarifyIntent, actions[0])
}

func TestArbitrateFinalApprovalPrependsApplyLoan(t *testing.T) {
	c := approvedLowContext()

	actions := arbitrateActions([]string{models.ActionCheckEligibility}, c)

	assert.Equal(t, models.ActionApplyLoan, actions[0])
	assert.NotContains(t, actions, models.ActionClarifyIntent)
}

func TestArbitrateVerificationFailurePrependsUploadDocuments(t *testing.T) {
	c := approvedLowContext()
	c.verification = &models.VerificationResult{Status: models.VerificationFailed}
	c.offer = &models.OfferResult{OfferAvailable: false}

	actions := arbitrateActions([]string{models.ActionCheckEligibility}, c)

	assert.Equal(t, models.ActionUploadDocuments, actions[0])
}

func TestArbitrateReviewInsertsCheckEligibility(t *testing.T) {
	c := approvedLowContext()
	c.underwriting = &models.UnderwritingResult{Decision: models.DecisionReview, Risk: models.RiskMedium}
	c.risk = &models.RiskResult{RiskBand: models.RiskMedium}
	c.offer = &models.OfferResult{OfferAvailable: false}
	c.verification = &models.VerificationResult{Status: models.VerificationFailed}

	actions := arbitrateActions([]string{models.ActionUploadDocuments}, c)

	// upload_documents present: check_eligibility slots in right after it.
	assert.Equal(t, []string{models.ActionUploadDocuments, models.ActionCheckEligibility}, actions)
}

func TestArbitrateDeclinedHighCollapsesToTalkToHuman(t *testing.T) {
	c := approvedLowContext()
	c.underwriting = &models.UnderwritingResult{Decision: models.DecisionDeclined, Risk: models.RiskHigh}
	c.risk = &models.RiskResult{RiskBand: models.RiskHigh}
	c.declinedHigh = true

	actions := arbitrateActions([]string{models.ActionApplyLoan, models.ActionCheckEligibility}, c)

	assert.Equal(t, []string{models.ActionTalkToHuman}, actions)
}

func TestArbitratePendingDecisionSkipsMatrix(t *testing.T) {
	c := actionContext{
		underwriting:    &models.UnderwritingResult{Decision: models.DecisionPending, Risk: models.RiskUnknown},
		intentConfident: true,
	}

	actions := arbitrateActions([]string{models.ActionCheckEligibility}, c)

	assert.Equal(t, []string{models.ActionCheckEligibility}, actions)
}

func TestArbitrateDeduplicates(t *testing.T) {
	c := approvedLowContext()

	actions := arbitrateActions([]string{
		models.ActionApplyLoan, models.ActionCheckEligibility, models.ActionApplyLoan,
	}, c)

	count := 0
	for _, a := range actions {
		if a == models.ActionApplyLoan {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
