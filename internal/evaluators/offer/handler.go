// internal/evaluators/offer/handler.go
package offer

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"loan-decision-pipeline/internal/capabilities"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"
)

// Offer terms by risk band.
const (
	BaseRateLowRisk  = 10.5
	BaseRateDefault  = 13.5
	TenureLowRisk    = 60
	TenureDefault    = 36
	IncomeMultiplier = 20

	FallbackMessage = "You are eligible for a loan. Our team will contact you shortly."
)

var currencySymbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// Handler computes affordability-bounded offer terms and delegates message
// phrasing to the text-generation capability.
type Handler struct {
	generator capabilities.TextGenerator
	logger    logger.Logger
}

func NewHandler(generator capabilities.TextGenerator, log logger.Logger) *Handler {
	return &Handler{
		generator: generator,
		logger:    log.WithFields(map[string]interface{}{"evaluator": "offer"}),
	}
}

// Execute returns the simple offer shape: either unavailable on a HIGH band
// or concrete terms. Generation failure falls back to a fixed message and
// never fails the offer itself.
func (h *Handler) Execute(
	ctx context.Context,
	app models.ApplicationData,
	underwriting *models.UnderwritingResult,
	risk *models.RiskResult,
) *models.OfferResult {
	band := models.RiskHigh
	if risk != nil {
		band = risk.RiskBand
	}

	if band == models.RiskHigh {
		return &models.OfferResult{
			OfferAvailable: false,
			Reason:         "High risk profile",
		}
	}

	approvedAmount := math.Min(app.LoanAmount, app.MonthlyIncome*IncomeMultiplier)

	currency := strings.ToUpper(app.Currency)
	if currency == "" {
		currency = "INR"
	}
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency
	}

	baseRate := BaseRateDefault
	tenure := TenureDefault
	if band == models.RiskLow {
		baseRate = BaseRateLowRisk
		tenure = TenureLowRisk
	}

	formattedAmount := symbol + groupThousands(approvedAmount)

	prompt := fmt.Sprintf(
		"Generate a short professional loan offer message.\n"+
			"Loan amount: %s\n"+
			"Interest rate: %.1f%%\n"+
			"Tenure: %d months\n"+
			"Tone: polite, concise, non-marketing.",
		formattedAmount, baseRate, tenure)

	message, err := h.generator.GenerateText(ctx, prompt, 60)
	if err != nil {
		h.logger.WithError(err).Warn("offer message generation failed, using fallback", nil)
		message = FallbackMessage
	}

	return &models.OfferResult{
		OfferAvailable: true,
		LoanAmount:     approvedAmount,
		InterestRate:   baseRate,
		TenureMonths:   tenure,
		Message:        strings.TrimSpace(message),
	}
}

// groupThousands renders a rounded amount with comma separators.
func groupThousands(amount float64) string {
	digits := strconv.FormatFloat(math.Round(amount), 'f', 0, 64)

	negative := strings.HasPrefix(digits, "-")
	if negative {
		digits = digits[1:]
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
		if len(digits) > lead {
			b.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			b.WriteByte(',')
		}
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}
