// internal/orchestrator/confidence.go
package orchestrator

import (
	"math"

	"loan-decision-pipeline/internal/models"
)

var decisionWeights = map[models.Decision]float64{
	models.DecisionApproved: 0.85,
	models.DecisionReview:   0.55,
	models.DecisionDeclined: 0.25,
}

var bandWeights = map[models.RiskLevel]float64{
	models.RiskLow:    0.78,
	models.RiskMedium: 0.48,
	models.RiskHigh:   0.2,
}

// blendConfidence derives an overall confidence from the pipeline signals
// when the decision-support capability did not provide one. Each available
// signal contributes one score; the result is their average.
func blendConfidence(
	intentConfidence float64,
	verification *models.VerificationResult,
	underwriting *models.UnderwritingResult,
	risk *models.RiskResult,
	offer *models.OfferResult,
) float64 {
	var scores []float64

	if intentConfidence > 0 {
		if intentConfidence < 0.55 {
			scores = append(scores, intentConfidence*0.5)
		} else {
			scores = append(scores, intentConfidence)
		}
	}

	if verification != nil && verification.Confidence > 0 {
		scores = append(scores, verification.Confidence)
	}

	if underwriting != nil && underwriting.Decision != "" {
		weight, ok := decisionWeights[underwriting.Decision]
		if !ok {
			weight = 0.5
		}
		scores = append(scores, weight)
	}

	if risk != nil && risk.RiskBand != "" {
		weight, ok := bandWeights[risk.RiskBand]
		if !ok {
			weight = 0.4
		}
		scores = append(scores, weight)
	}

	if risk != nil && risk.RiskScore > 0 {
		normalized := risk.RiskScore
		if normalized > 1 {
			normalized = normalized / 100.0
		}
		scores = append(scores, math.Max(0.1, 1-normalized*0.7))
	}

	if offer != nil {
		if offer.OfferAvailable {
			scores = append(scores, 0.78)
		} else {
			scores = append(scores, 0.35)
		}
	}

	if len(scores) == 0 {
		return 0.5
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	avg := math.Round(sum/float64(len(scores))*100) / 100

	if decisionOf(underwriting) == models.DecisionReview || bandOf(risk) == models.RiskMedium {
		return clamp(avg, 0.55, 0.65)
	}
	return avg
}

// decisionConfidence applies the final clamps over the blended or
// advisor-provided confidence.
func decisionConfidence(
	confidence float64,
	verification *models.VerificationResult,
	underwriting *models.UnderwritingResult,
	risk *models.RiskResult,
	declinedHigh bool,
) float64 {
	out := confidence

	band := bandOf(risk)
	if decisionOf(underwriting) != models.DecisionApproved ||
		band == models.RiskMedium || band == models.RiskHigh {
		if out == 0 {
			out = 0.6
		}
		out = clamp(out, 0.40, 0.60)
	} else if verification != nil && verification.Status == models.VerificationFailed {
		if out == 0 {
			out = 0.5
		}
		out = clamp(out, 0.35, 0.55)
	}

	if declinedHigh && verification.Verified() {
		out = math.Max(out, 0.85)
	}

	return out
}

// replyConfidence reflects how well the intent was understood, boosted when
// a strong emotion signal corroborates the reading.
func replyConfidence(intentConfidence, emotionScore float64) float64 {
	out := intentConfidence
	if out <= 0 {
		out = 0.5
	}
	if emotionScore > 0.6 {
		out = math.Min(0.95, out+0.1)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
