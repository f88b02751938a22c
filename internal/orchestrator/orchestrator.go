// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"loan-decision-pipeline/internal/capabilities"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/common/metrics"
	"loan-decision-pipeline/internal/evaluators/feedback"
	"loan-decision-pipeline/internal/evaluators/offer"
	"loan-decision-pipeline/internal/evaluators/risk"
	"loan-decision-pipeline/internal/evaluators/sales"
	"loan-decision-pipeline/internal/evaluators/underwriting"
	"loan-decision-pipeline/internal/evaluators/verification"
	"loan-decision-pipeline/internal/models"
)

// Request is the single-run input contract.
type Request struct {
	Message         string                 `json:"message"`
	CustomerID      string                 `json:"customer_id,omitempty"`
	ApplicationData map[string]interface{} `json:"application_data,omitempty"`
	Documents       map[string]interface{} `json:"documents,omitempty"`
}

// intentLabelMap resolves raw classifier labels to business intents.
var intentLabelMap = map[string]string{
	"LABEL_0": "BUSINESS_LOAN_REQUEST",
	"LABEL_1": "PERSONAL_LOAN_REQUEST",
	"LABEL_2": "GENERAL_INQUIRY",
	"LABEL_3": "COMPLAINT",
	"LABEL_4": "DOCUMENT_QUERY",
}

const intentConfidenceFloor = 0.55

// Orchestrator runs the full decision pipeline for one message. It holds no
// per-request state: every run builds its results from scratch, so
// identical inputs with identical capability outputs produce identical
// responses.
type Orchestrator struct {
	providers capabilities.Providers
	sales     *sales.Handler
	verifier  *verification.Handler
	offers    *offer.Handler
	feedback  *feedback.Handler
	logger    logger.Logger
}

func New(providers capabilities.Providers, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		sales:     sales.NewHandler(providers.Intent, providers.Sentiment, providers.Emotion, log),
		verifier:  verification.NewHandler(providers.Names, log),
		offers:    offer.NewHandler(providers.Generator, log),
		feedback:  feedback.NewHandler(providers.Generator, log),
		logger:    log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Process executes the pipeline: concurrent message analysis, sequential
// evaluator chain, decision support, action arbitration, and masking.
func (o *Orchestrator) Process(ctx context.Context, req *Request) (*models.OrchestratorResponse, error) {
	start := time.Now()

	app := models.ApplicationFromMap(req.ApplicationData)
	hasApplication := len(req.ApplicationData) > 0

	// Step 1: the three message-level analyses share no data, run them
	// concurrently.
	var (
		wg           sync.WaitGroup
		intentResult models.IntentResult
		intentErr    error
		emotion      models.EmotionResult
		salesSignal  *models.SalesSignal
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		intentResult, intentErr = o.providers.Intent.ClassifyIntent(ctx, req.Message)
	}()
	go func() {
		defer wg.Done()
		if e, err := o.providers.Emotion.AnalyzeEmotion(ctx, req.Message); err == nil {
			emotion = e
		} else {
			metrics.CapabilityFallbacks.WithLabelValues("emotion").Inc()
		}
	}()
	go func() {
		defer wg.Done()
		salesSignal = o.sales.Execute(ctx, req.Message)
	}()
	wg.Wait()

	mappedIntent := mapIntent(intentResult, intentErr)
	intentConf := mappedIntent.Confidence

	// Documents inherit the applicant name when the upload lacks one.
	docPayload := models.DocumentsFromMap(req.Documents)
	if docPayload.Name == "" && app.Name != "" {
		docPayload.Name = app.Name
	}

	// Absence of documents is not a failure, just an empty result.
	var verificationResult *models.VerificationResult
	if !docPayload.IsEmpty() {
		stageStart := time.Now()
		verificationResult = o.verifier.Execute(ctx, docPayload)
		metrics.StageDuration.WithLabelValues("verification").Observe(time.Since(stageStart).Seconds())
	}

	// Underwriting is not gated on verification; only the offer is.
	var underwritingResult *models.UnderwritingResult
	if hasApplication {
		underwritingResult = underwriting.Evaluate(app)
	} else {
		underwritingResult = underwriting.Placeholder(app)
	}

	var riskResult *models.RiskResult
	if hasApplication && verificationResult != nil && underwritingResult != nil {
		riskResult = risk.Assess(verificationResult, underwritingResult, app)
	}

	offerResult := o.gateOffer(ctx, app, hasApplication, verificationResult, underwritingResult, riskResult)

	declinedHigh := decisionOf(underwritingResult) == models.DecisionDeclined &&
		bandOf(riskResult) == models.RiskHigh

	if declinedHigh {
		if emotion.Score == 0 {
			emotion.Score = 0.5
		}
		emotion.Emotion = "neutral"
	}

	var feedbackResult *models.FeedbackResult
	if verificationResult != nil && underwritingResult != nil && riskResult != nil {
		feedbackResult = o.feedback.Execute(ctx, verificationResult, underwritingResult, riskResult, emotion.Emotion)
	}

	mergeSalesSignal(salesSignal, mappedIntent, emotion, declinedHigh)

	// Displayed risk never implies absolute certainty.
	if riskResult != nil && riskResult.RiskScore > 0.95 {
		riskResult.RiskScore = 0.95
		riskResult.RiskScorePercent = 95
	}

	signals := models.Signals{
		UserMessage:     req.Message,
		CustomerID:      req.CustomerID,
		Intent:          &mappedIntent,
		Emotion:         &emotion,
		Sales:           salesSignal,
		Verification:    verificationResult,
		Underwriting:    underwritingResult,
		Risk:            riskResult,
		Offer:           offerResult,
		Feedback:        feedbackResult,
		ApplicationData: maskSensitiveMap(req.ApplicationData),
		Documents:       maskSensitiveMap(req.Documents),
	}

	// Decision support proposes reply/actions/confidence. The declined
	// high-risk override supersedes it entirely.
	var advice models.DecisionAdvice
	if !declinedHigh {
		advice = o.adviseWithFallback(ctx, &signals)
	}

	reply := advice.Reply
	if len(reply) < 20 {
		reply = empatheticReply(verificationResult, underwritingResult, riskResult, emotion.Emotion, intentConf)
	}
	if declinedHigh {
		reply = declinedHighReply(app.Name)
	}

	actions := arbitrateActions(advice.Actions, actionContext{
		app:             app,
		hasApplication:  hasApplication,
		verification:    verificationResult,
		underwriting:    underwritingResult,
		risk:            riskResult,
		offer:           offerResult,
		intentConfident: intentConf >= intentConfidenceFloor,
		declinedHigh:    declinedHigh,
	})

	confidence := advice.Confidence
	if confidence == 0 {
		confidence = blendConfidence(intentConf, verificationResult, underwritingResult, riskResult, offerResult)
	}
	decisionConf := decisionConfidence(confidence, verificationResult, underwritingResult, riskResult, declinedHigh)
	replyConf := replyConfidence(intentConf, emotion.Score)

	if declinedHigh {
		if feedbackResult == nil {
			feedbackResult = &models.FeedbackResult{Risk: bandOf(riskResult)}
		}
		feedbackResult.ToneApplied = "supportive_neutral"
		feedbackResult.Feedback = "We are unable to approve this request because your current loan repayments take up a large " +
			"portion of your income, and your credit score is below the required threshold."
		signals.Feedback = feedbackResult
	}

	o.recordOutcome(underwritingResult, riskResult, offerResult, time.Since(start))

	return &models.OrchestratorResponse{
		AssistantReply: reply,
		Actions:        actions,
		Confidence: models.ConfidenceScores{
			ReplyConfidence:    round2(replyConf),
			DecisionConfidence: round2(decisionConf),
		},
		Signals: signals,
	}, nil
}

// gateOffer applies the layered offer gate. Precedence picks exactly one
// blocking reason; only a fully clean state computes real terms.
func (o *Orchestrator) gateOffer(
	ctx context.Context,
	app models.ApplicationData,
	hasApplication bool,
	verificationResult *models.VerificationResult,
	underwritingResult *models.UnderwritingResult,
	riskResult *models.RiskResult,
) *models.OfferResult {
	if hasApplication &&
		underwritingResult != nil &&
		riskResult != nil &&
		verificationResult.Verified() &&
		underwritingResult.Decision == models.DecisionApproved &&
		riskResult.RiskBand != models.RiskHigh {
		stageStart := time.Now()
		result := o.offers.Execute(ctx, app, underwritingResult, riskResult)
		metrics.StageDuration.WithLabelValues("offer").Observe(time.Since(stageStart).Seconds())
		metrics.OffersGenerated.WithLabelValues("none").Inc()
		return result
	}

	blockedBy := models.BlockedByIncompleteData
	reason := "Offer gated: incomplete application data"
	retryAllowed := true

	switch {
	case !verificationResult.Verified():
		blockedBy = models.BlockedByDocumentVerification
		reason = "Offer gated: document verification required"
	case underwritingResult != nil && underwritingResult.Decision != models.DecisionApproved:
		blockedBy = models.BlockedByUnderwriting
		reason = fmt.Sprintf("Offer gated: underwriting decision is %s", underwritingResult.Decision)
		if underwritingResult.Decision == models.DecisionDeclined {
			retryAllowed = false
		}
	case riskResult != nil && riskResult.RiskBand == models.RiskHigh:
		blockedBy = models.BlockedByRiskAssessment
		reason = "Offer gated: high risk profile"
		retryAllowed = false
	}

	metrics.OffersGenerated.WithLabelValues(blockedBy).Inc()

	return &models.OfferResult{
		OfferAvailable: false,
		BlockedBy:      blockedBy,
		RetryAllowed:   retryAllowed,
		Reason:         reason,
	}
}

// adviseWithFallback serializes the aggregated (already masked) signals and
// asks the decision-support capability for a proposal. Failures of any kind
// collapse to the documented neutral fallback.
func (o *Orchestrator) adviseWithFallback(ctx context.Context, signals *models.Signals) models.DecisionAdvice {
	contextJSON, err := json.Marshal(signals)
	if err != nil {
		o.logger.WithError(err).Error("failed to serialize decision context", nil)
		return fallbackAdvice()
	}

	advice, err := o.providers.Advisor.Advise(ctx, string(contextJSON))
	if err != nil {
		o.logger.WithError(err).Warn("decision support unavailable, using fallback", nil)
		metrics.CapabilityFallbacks.WithLabelValues("decision_support").Inc()
		return fallbackAdvice()
	}
	return advice
}

func fallbackAdvice() models.DecisionAdvice {
	return models.DecisionAdvice{
		Reply:      "I understand. Let me help you step by step.",
		Actions:    []string{models.ActionTalkToHuman},
		Confidence: 0.5,
	}
}

func mapIntent(result models.IntentResult, err error) models.IntentResult {
	if err != nil {
		metrics.CapabilityFallbacks.WithLabelValues("intent").Inc()
		return models.IntentResult{Intent: "UNKNOWN", Confidence: 0.0}
	}
	if mapped, ok := intentLabelMap[strings.ToUpper(result.Intent)]; ok {
		return models.IntentResult{Intent: mapped, Confidence: result.Confidence}
	}
	if result.Intent == "" {
		return models.IntentResult{Intent: "UNKNOWN", Confidence: 0.0}
	}
	return result
}

// mergeSalesSignal back-fills the sales block with the resolved intent and
// emotion, and applies the declined high-risk posture.
func mergeSalesSignal(signal *models.SalesSignal, intent models.IntentResult, emotion models.EmotionResult, declinedHigh bool) {
	if signal == nil {
		return
	}

	if signal.Sentiment.Score == 0.0 && emotion.Score > 0 {
		signal.Sentiment.Score = emotion.Score
		if emotion.Emotion != "" {
			signal.Sentiment.Label = strings.ToUpper(emotion.Emotion)
		}
	}
	if signal.EmotionAnalysis.Score == 0.0 && emotion.Score > 0 {
		signal.EmotionAnalysis.Score = emotion.Score
	}
	if signal.EmotionAnalysis.Emotion == "" && emotion.Emotion != "" {
		signal.EmotionAnalysis.Emotion = emotion.Emotion
	}
	if intent.Intent != "" {
		signal.Intent = intent.Intent
	}

	if declinedHigh {
		signal.Sentiment.Label = models.SentimentNegative
		if signal.Sentiment.Score < 0.75 {
			signal.Sentiment.Score = 0.75
		}
		signal.EmotionAnalysis = emotion
	}
}

// empatheticReply is the rule-selected fallback used when decision support
// yields nothing usable.
func empatheticReply(
	verificationResult *models.VerificationResult,
	underwritingResult *models.UnderwritingResult,
	riskResult *models.RiskResult,
	emotion string,
	intentConf float64,
) string {
	worried := emotion == "sadness" || emotion == "fear" || emotion == "concern"

	// Missing documents read the same as failed ones here: anything short of
	// a verified status asks for a re-upload, matching the offer gate.
	if !verificationResult.Verified() {
		reason := "document verification issue"
		if verificationResult != nil && verificationResult.Reason != "" {
			reason = verificationResult.Reason
		}
		if worried {
			return fmt.Sprintf(
				"I understand this is important to you. Your application is almost complete, "+
					"but we couldn't verify your documents due to: %s. "+
					"Please re-upload a valid document so we can continue evaluating your loan eligibility.", reason)
		}
		return fmt.Sprintf(
			"Your application is almost complete. We couldn't verify your documents due to: %s. "+
				"Please re-upload a valid document so we can continue.", reason)
	}

	decision := decisionOf(underwritingResult)
	band := bandOf(riskResult)

	switch {
	case decision == models.DecisionApproved && band == models.RiskLow:
		return "Great news! Your application looks strong. Let me show you the offers available."
	case decision == models.DecisionReview:
		if worried {
			return "I can see you're eager to proceed. We need to review a few more details before " +
				"we can finalize your application. This is a standard process to ensure we offer you the best terms."
		}
		return "We need to review a few more details before finalizing your application. This is standard procedure."
	case decision == models.DecisionDeclined:
		reasonText := "policy constraints"
		if underwritingResult != nil && len(underwritingResult.Reasons) > 0 {
			reasonText = strings.Join(underwritingResult.Reasons, ", ")
		}
		return fmt.Sprintf(
			"I understand this may be disappointing. Unfortunately, we're unable to approve the loan at this time "+
				"due to: %s. Our team can discuss alternative options with you.", reasonText)
	}

	if intentConf < intentConfidenceFloor {
		return "I'd like to help you better. Could you tell me more about what kind of loan you're looking for?"
	}

	return "Thank you for your application. Let me check the details and guide you through the next steps."
}

func declinedHighReply(applicantName string) string {
	namePart := ""
	if applicantName != "" {
		namePart = ", " + applicantName
	}
	return fmt.Sprintf(
		"I understand you are looking for a loan%s. After reviewing your application, "+
			"we are unable to approve the loan at this time due to a high repayment burden and a low credit score. "+
			"If you would like, our support team can walk you through alternative options or steps to improve eligibility.",
		namePart)
}

func (o *Orchestrator) recordOutcome(
	underwritingResult *models.UnderwritingResult,
	riskResult *models.RiskResult,
	offerResult *models.OfferResult,
	elapsed time.Duration,
) {
	decision := string(decisionOf(underwritingResult))
	if decision == "" {
		decision = string(models.DecisionPending)
	}
	band := string(bandOf(riskResult))
	if band == "" {
		band = string(models.RiskUnknown)
	}

	metrics.DecisionOutcomes.WithLabelValues(decision, band).Inc()
	metrics.StageDuration.WithLabelValues("pipeline").Observe(elapsed.Seconds())

	outcome := "processed"
	if offerResult != nil && offerResult.OfferAvailable {
		outcome = "offer_made"
	}
	metrics.PipelineRequests.WithLabelValues(outcome).Inc()
}
