// internal/evaluators/verification/handler.go
package verification

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"loan-decision-pipeline/internal/capabilities"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"
)

var (
	aadhaarPattern = regexp.MustCompile(`^[2-9]\d{11}$`)
	panPattern     = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
)

// Handler validates the identity-document payload. Format rules are local;
// the optional name plausibility check goes through the zero-shot capability
// and degrades to success on outage.
type Handler struct {
	names  capabilities.NameChecker
	logger logger.Logger
}

func NewHandler(names capabilities.NameChecker, log logger.Logger) *Handler {
	return &Handler{
		names:  names,
		logger: log.WithFields(map[string]interface{}{"evaluator": "verification"}),
	}
}

// Execute never returns an error: every failure mode maps to a failed
// result with a caller-facing reason.
func (h *Handler) Execute(ctx context.Context, payload models.DocumentPayload) *models.VerificationResult {
	if payload.IsEmpty() {
		return fail("No documents submitted. Please upload your Aadhaar and PAN documents.", 0.0)
	}

	if payload.Aadhaar == "" || payload.PAN == "" {
		var missing []string
		if payload.Aadhaar == "" {
			missing = append(missing, "Aadhaar")
		}
		if payload.PAN == "" {
			missing = append(missing, "PAN")
		}
		return fail(fmt.Sprintf(
			"Missing required documents: %s. Please upload all required documents.",
			strings.Join(missing, ", ")), 0.2)
	}

	if !aadhaarPattern.MatchString(payload.Aadhaar) {
		return fail(
			"Invalid Aadhaar format. Expected format: 12-digit number starting with 2-9. "+
				"Please re-upload a valid Aadhaar number.", 0.4)
	}

	if !panPattern.MatchString(strings.ToUpper(payload.PAN)) {
		return fail(
			"Invalid PAN format. Expected format: 5 letters, 4 digits, 1 letter (e.g., ABCDE1234F). "+
				"Please re-upload a valid PAN.", 0.4)
	}

	confidence := 0.7

	if payload.Name != "" {
		label, err := h.names.CheckName(ctx, "Name on documents: "+payload.Name)
		if err != nil {
			h.logger.WithError(err).Warn("name check unavailable, accepting documents", nil)
			return verified(0.8)
		}
		if label != capabilities.NameLabelValid {
			return fail("Name consistency unclear", 0.6)
		}
		confidence += 0.1
	}

	if confidence > 0.9 {
		confidence = 0.9
	}
	return verified(confidence)
}

func fail(reason string, confidence float64) *models.VerificationResult {
	return &models.VerificationResult{
		Status:     models.VerificationFailed,
		Confidence: confidence,
		Reason:     reason,
	}
}

func verified(confidence float64) *models.VerificationResult {
	return &models.VerificationResult{
		Status:     models.VerificationVerified,
		Confidence: confidence,
		Reason:     "Documents passed format and consistency checks",
	}
}
