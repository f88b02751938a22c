// internal/orchestrator/actions.go
package orchestrator

import (
	"loan-decision-pipeline/internal/models"
)

// riskDecisionActions is the static permission matrix keyed by
// (risk band, underwriting decision). clarify_intent and check_eligibility
// are always permitted regardless of the cell.
var riskDecisionActions = map[models.RiskLevel]map[models.Decision][]string{
	models.RiskLow: {
		models.DecisionApproved: {"offer", "confirm", models.ActionApplyLoan},
		models.DecisionReview:   {models.ActionCheckEligibility, models.ActionUploadDocuments},
		models.DecisionDeclined: {"explain_reason", models.ActionTalkToHuman},
	},
	models.RiskMedium: {
		models.DecisionApproved: {models.ActionUploadDocuments, models.ActionCheckEligibility},
		models.DecisionReview:   {models.ActionUploadDocuments, models.ActionCheckEligibility, models.ActionClarifyIntent},
		models.DecisionDeclined: {"explain_reason", models.ActionTalkToHuman},
	},
	models.RiskHigh: {
		models.DecisionApproved: {models.ActionUploadDocuments, "recheck"},
		models.DecisionReview:   {models.ActionUploadDocuments, models.ActionTalkToHuman},
		models.DecisionDeclined: {"explain_reason", models.ActionTalkToHuman},
	},
}

// actionContext carries everything arbitration needs to vet the proposed
// action list.
type actionContext struct {
	app             models.ApplicationData
	hasApplication  bool
	verification    *models.VerificationResult
	underwriting    *models.UnderwritingResult
	risk            *models.RiskResult
	offer           *models.OfferResult
	intentConfident bool
	declinedHigh    bool
}

// arbitrateActions vets the advisor's proposed actions against the decision
// state. Each step mutates the working set in a fixed order; the result is
// an ordered, de-duplicated list.
func arbitrateActions(proposed []string, c actionContext) []string {
	actions := append([]string(nil), proposed...)

	// Fraud hold requires an explicit high fraud score.
	if contains(actions, models.ActionBlockTransaction) {
		fraudScore := 0.0
		if c.hasApplication && c.app.HasFraudScore {
			fraudScore = c.app.FraudScore
		}
		if fraudScore < 0.7 {
			actions = remove(actions, models.ActionBlockTransaction)
		}
	}

	// Human handoff is reserved for declined or high-risk cases.
	if contains(actions, models.ActionTalkToHuman) {
		if decisionOf(c.underwriting) != models.DecisionDeclined && bandOf(c.risk) != models.RiskHigh {
			actions = remove(actions, models.ActionTalkToHuman)
		}
	}

	// Permission matrix intersection.
	band := bandOf(c.risk)
	if band == "" {
		band = models.RiskMedium
	}
	decision := decisionOf(c.underwriting)
	if decision == "" {
		decision = models.DecisionPending
	}
	if cell, ok := riskDecisionActions[band][decision]; ok {
		var filtered []string
		for _, action := range actions {
			if contains(cell, action) ||
				action == models.ActionClarifyIntent ||
				action == models.ActionCheckEligibility {
				filtered = append(filtered, action)
			}
		}
		if len(filtered) == 0 {
			filtered = append(filtered, cell[:2]...)
		}
		actions = filtered
	}

	// An unclear intent should never lead straight into an application.
	if !c.intentConfident && !c.declinedHigh {
		actions = remove(actions, models.ActionApplyLoan)
		if !contains(actions, models.ActionClarifyIntent) {
			actions = prepend(actions, models.ActionClarifyIntent)
		}
	}

	finalApproval := decisionOf(c.underwriting) == models.DecisionApproved &&
		c.offer != nil && c.offer.OfferAvailable &&
		bandOf(c.risk) == models.RiskLow

	if finalApproval && c.intentConfident {
		actions = remove(actions, models.ActionClarifyIntent)
		if !contains(actions, models.ActionApplyLoan) {
			actions = prepend(actions, models.ActionApplyLoan)
		}
	}

	if c.verification != nil && c.verification.Status == models.VerificationFailed &&
		!contains(actions, models.ActionUploadDocuments) {
		actions = prepend(actions, models.ActionUploadDocuments)
	}

	if decisionOf(c.underwriting) == models.DecisionReview && !contains(actions, models.ActionCheckEligibility) {
		if contains(actions, models.ActionUploadDocuments) {
			actions = insertAt(actions, 1, models.ActionCheckEligibility)
		} else {
			actions = append(actions, models.ActionCheckEligibility)
		}
	}

	if c.declinedHigh {
		return []string{models.ActionTalkToHuman}
	}

	return dedupe(actions)
}

func decisionOf(uw *models.UnderwritingResult) models.Decision {
	if uw == nil {
		return ""
	}
	return uw.Decision
}

func bandOf(risk *models.RiskResult) models.RiskLevel {
	if risk == nil {
		return ""
	}
	return risk.RiskBand
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

func remove(list []string, value string) []string {
	out := list[:0]
	for _, v := range list {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

func prepend(list []string, value string) []string {
	return append([]string{value}, list...)
}

func insertAt(list []string, idx int, value string) []string {
	if idx >= len(list) {
		return append(list, value)
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list[:idx]...)
	out = append(out, value)
	out = append(out, list[idx:]...)
	return out
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
