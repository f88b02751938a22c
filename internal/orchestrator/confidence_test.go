package orchestrator

import (
	"testing"

	"loan-decision-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestBlendConfidenceAveragesAvailableSignals(t *testing.T) {
	got := blendConfidence(
		0.92,
		&models.VerificationResult{Status: models.VerificationVerified, Confidence: 0.8},
		&models.UnderwritingResult{Decision: models.DecisionApproved},
		&models.RiskResult{RiskBand: models.RiskLow, RiskScore: 0.18},
		&models.OfferResult{OfferAvailable: true},
	)

	// (0.92 + 0.8 + 0.85 + 0.78 + 0.874 + 0.78) / 6
	assert.Equal(t, 0.83, got)
}

func TestBlendConfidencePenalizesWeakIntent(t *testing.T) {
	weak := blendConfidence(0.4, nil, nil, nil, nil)
	assert.Equal(t, 0.2, weak)
}

func TestBlendConfidenceNoSignalsDefaults(t *testing.T) {
	assert.Equal(t, 0.5, blendConfidence(0, nil, nil, nil, nil))
}

func TestBlendConfidenceReviewClampWindow(t *testing.T) {
	got := blendConfidence(
		0.92,
		&models.VerificationResult{Status: models.VerificationVerified, Confidence: 0.8},
		&models.UnderwritingResult{Decision: models.DecisionReview},
		&models.RiskResult{RiskBand: models.RiskMedium, RiskScore: 0.45},
		&models.OfferResult{OfferAvailable: false},
	)

	assert.GreaterOrEqual(t, got, 0.55)
	assert.LessOrEqual(t, got, 0.65)
}

func TestBlendConfidenceNormalizesPercentScale(t *testing.T) {
	withPercent := blendConfidence(0, nil, nil, &models.RiskResult{RiskScore: 50}, nil)
	withFraction := blendConfidence(0, nil, nil, &models.RiskResult{RiskScore: 0.5}, nil)
	assert.Equal(t, withFraction, withPercent)
}

func TestDecisionConfidenceClampsNonApproved(t *testing.T) {
	got := decisionConfidence(0.9, nil,
		&models.UnderwritingResult{Decision: models.DecisionReview},
		&models.RiskResult{RiskBand: models.RiskMedium}, false)
	assert.Equal(t, 0.6, got)

	got = decisionConfidence(0.1, nil,
		&models.UnderwritingResult{Decision: models.DecisionReview},
		&models.RiskResult{RiskBand: models.RiskMedium}, false)
	assert.Equal(t, 0.4, got)
}

func TestDecisionConfidenceVerificationFailureClamp(t *testing.T) {
	got := decisionConfidence(0.9,
		&models.VerificationResult{Status: models.VerificationFailed},
		&models.UnderwritingResult{Decision: models.DecisionApproved},
		&models.RiskResult{RiskBand: models.RiskLow}, false)
	assert.Equal(t, 0.55, got)
}

func TestDecisionConfidenceDeclinedHighFloor(t *testing.T) {
	got := decisionConfidence(0.48,
		&models.VerificationResult{Status: models.VerificationVerified},
		&models.UnderwritingResult{Decision: models.DecisionDeclined},
		&models.RiskResult{RiskBand: models.RiskHigh}, true)
	assert.Equal(t, 0.85, got)
}

func TestReplyConfidence(t *testing.T) {
	assert.Equal(t, 0.92, replyConfidence(0.92, 0.3))
	assert.Equal(t, 0.5, replyConfidence(0, 0.3))
	assert.Equal(t, 0.95, replyConfidence(0.92, 0.9))
	assert.InDelta(t, 0.6, replyConfidence(0.5, 0.7), 0.0001)
}
