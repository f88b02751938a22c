// internal/evaluators/feedback/handler.go
package feedback

import (
	"context"
	"fmt"
	"strings"

	"loan-decision-pipeline/internal/capabilities"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"
)

// Handler turns the decision trail into an applicant-facing explanation.
// Base-message selection is deterministic; only the final phrasing is
// delegated to the text-generation capability.
type Handler struct {
	generator capabilities.TextGenerator
	logger    logger.Logger
}

func NewHandler(generator capabilities.TextGenerator, log logger.Logger) *Handler {
	return &Handler{
		generator: generator,
		logger:    log.WithFields(map[string]interface{}{"evaluator": "feedback"}),
	}
}

func (h *Handler) Execute(
	ctx context.Context,
	verification *models.VerificationResult,
	underwriting *models.UnderwritingResult,
	risk *models.RiskResult,
	emotion string,
) *models.FeedbackResult {
	band := models.RiskMedium
	var reasons []string
	if risk != nil {
		band = risk.RiskBand
		reasons = risk.Reasons
	}

	decision := models.DecisionPending
	if underwriting != nil {
		decision = underwriting.Decision
	}

	tonePrefix := toneInstruction(emotion)
	baseMessage := selectBaseMessage(verification, decision, band, reasons)

	prompt := tonePrefix +
		"Rewrite the following system decision into a polite, clear " +
		"message suitable for a loan applicant:\n\n" +
		baseMessage

	text, err := h.generator.GenerateText(ctx, prompt, 120)
	if err != nil {
		h.logger.WithError(err).Warn("feedback phrasing failed, returning base message", nil)
		text = baseMessage
	}

	toneApplied := emotion
	if toneApplied == "" {
		toneApplied = "neutral"
	}

	return &models.FeedbackResult{
		Feedback:    text,
		Risk:        band,
		ToneApplied: toneApplied,
	}
}

func toneInstruction(emotion string) string {
	switch emotion {
	case "sadness", "fear", "concern", "worried":
		return "Use an empathetic, reassuring tone. "
	case "anger", "frustration":
		return "Use a calm, understanding tone. "
	case "joy", "happy", "excited":
		return "Use a positive, encouraging tone. "
	default:
		return "Use a professional, clear tone. "
	}
}

func selectBaseMessage(
	verification *models.VerificationResult,
	decision models.Decision,
	band models.RiskLevel,
	riskReasons []string,
) string {
	if !verification.Verified() {
		reason := "Document verification failed"
		if verification != nil && verification.Reason != "" {
			reason = verification.Reason
		}
		return "We can't finalize your application yet because document verification didn't pass. " +
			fmt.Sprintf("Reason: %s. ", reason) +
			"Please update or re-upload the correct required documents (such as a valid Aadhaar format) and we will re-verify promptly."
	}

	if band == models.RiskHigh {
		concerns := riskReasons
		if len(concerns) == 0 {
			concerns = []string{"policy constraints"}
		}
		return "The loan application was not approved due to high risk factors. " +
			"Key concerns include: " + strings.Join(concerns, ", ") +
			". Our team can discuss alternative options with you if needed."
	}

	return fmt.Sprintf("The loan application is %s. Overall risk is %s.",
		strings.ToLower(string(decision)), strings.ToLower(string(band)))
}
