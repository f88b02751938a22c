// internal/models/results.go
package models

// Decision is the underwriting outcome. Severity only ever escalates within
// one evaluation: APPROVED < REVIEW < DECLINED.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionReview   Decision = "REVIEW"
	DecisionDeclined Decision = "DECLINED"
	DecisionPending  Decision = "PENDING"
)

var decisionSeverity = map[Decision]int{
	DecisionApproved: 0,
	DecisionReview:   1,
	DecisionDeclined: 2,
}

// EscalateDecision returns the more severe of the two decisions.
func EscalateDecision(current, proposed Decision) Decision {
	if decisionSeverity[proposed] > decisionSeverity[current] {
		return proposed
	}
	return current
}

// RiskLevel is the coarse risk tier attached to a decision or score.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// RiskForDecision maps a decision onto its paired underwriting risk tier.
func RiskForDecision(d Decision) RiskLevel {
	switch d {
	case DecisionDeclined:
		return RiskHigh
	case DecisionReview:
		return RiskMedium
	case DecisionApproved:
		return RiskLow
	default:
		return RiskUnknown
	}
}

// Verification statuses.
const (
	VerificationVerified = "verified"
	VerificationFailed   = "failed"
)

// VerificationResult is the outcome of identity-document checks. A failed
// status always carries a human-readable reason; verified confidence is
// capped at 0.9.
type VerificationResult struct {
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Verified reports whether the documents passed verification.
func (v *VerificationResult) Verified() bool {
	return v != nil && v.Status == VerificationVerified
}

// UnderwritingResult is the deterministic rule-engine outcome.
type UnderwritingResult struct {
	Decision    Decision  `json:"decision"`
	Risk        RiskLevel `json:"risk"`
	EMIRatio    float64   `json:"emi_ratio"`
	CreditScore float64   `json:"credit_score"`
	Reasons     []string  `json:"reasons"`
}

// RiskResult is the fused weighted risk assessment.
type RiskResult struct {
	RiskBand         RiskLevel `json:"risk_band"`
	RiskScore        float64   `json:"risk_score"`
	RiskScorePercent int       `json:"risk_score_percent"`
	Reasons          []string  `json:"reasons"`
}

// Offer gate block reasons.
const (
	BlockedByDocumentVerification = "DOCUMENT_VERIFICATION"
	BlockedByUnderwriting         = "UNDERWRITING"
	BlockedByRiskAssessment       = "RISK_ASSESSMENT"
	BlockedByIncompleteData       = "INCOMPLETE_DATA"
)

// OfferResult is either a concrete offer or a gated/blocked shape.
type OfferResult struct {
	OfferAvailable bool    `json:"offer_available"`
	LoanAmount     float64 `json:"loan_amount,omitempty"`
	InterestRate   float64 `json:"interest_rate,omitempty"`
	TenureMonths   int     `json:"tenure_months,omitempty"`
	Message        string  `json:"message,omitempty"`
	BlockedBy      string  `json:"blocked_by,omitempty"`
	RetryAllowed   bool    `json:"retry_allowed,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

// FeedbackResult is the applicant-facing explanation of the decision.
type FeedbackResult struct {
	Feedback    string    `json:"feedback"`
	Risk        RiskLevel `json:"risk"`
	ToneApplied string    `json:"tone_applied"`
}

// Sentiment labels.
const (
	SentimentPositive = "POSITIVE"
	SentimentNegative = "NEGATIVE"
	SentimentNeutral  = "NEUTRAL"
)

// IntentResult is the normalized top entry of an intent classification.
type IntentResult struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// EmotionResult is the normalized max-score entry of an emotion analysis.
type EmotionResult struct {
	Emotion string  `json:"emotion"`
	Score   float64 `json:"score"`
}

// SentimentResult is a normalized sentiment classification.
type SentimentResult struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SalesSignal aggregates conversion heuristics over one customer message.
type SalesSignal struct {
	Intent           string          `json:"intent"`
	IntentConfidence float64         `json:"intent_confidence"`
	Sentiment        SentimentResult `json:"sentiment"`
	Urgency          float64         `json:"urgency"`
	UrgencyRaw       int             `json:"urgency_raw"`
	Hesitation       int             `json:"hesitation"`
	PersuasionIndex  int             `json:"persuasion_index"`
	ToneSummary      string          `json:"tone_summary"`
	EmotionAnalysis  EmotionResult   `json:"emotion_analysis"`
}

// Action tokens offered back to the caller, in UI order.
const (
	ActionApplyLoan        = "apply_loan"
	ActionCheckEligibility = "check_eligibility"
	ActionClarifyIntent    = "clarify_intent"
	ActionUploadDocuments  = "upload_documents"
	ActionTalkToHuman      = "talk_to_human"
	ActionBlockTransaction = "block_transaction"
)

// DecisionAdvice is the structured proposal extracted from the free-text
// decision-support capability.
type DecisionAdvice struct {
	Reply      string   `json:"reply"`
	Actions    []string `json:"actions"`
	Confidence float64  `json:"confidence"`
}

// ConfidenceScores reports how sure the pipeline is about its reply and its
// decision, both in [0,1].
type ConfidenceScores struct {
	ReplyConfidence    float64 `json:"reply_confidence"`
	DecisionConfidence float64 `json:"decision_confidence"`
}

// Signals is the PII-masked snapshot of every intermediate result included
// in the response for transparency and audit.
type Signals struct {
	UserMessage     string                 `json:"user_message"`
	CustomerID      string                 `json:"customer_id,omitempty"`
	Intent          *IntentResult          `json:"intent,omitempty"`
	Emotion         *EmotionResult         `json:"emotion,omitempty"`
	Sales           *SalesSignal           `json:"sales,omitempty"`
	Verification    *VerificationResult    `json:"verification,omitempty"`
	Underwriting    *UnderwritingResult    `json:"underwriting,omitempty"`
	Risk            *RiskResult            `json:"risk,omitempty"`
	Offer           *OfferResult           `json:"offer,omitempty"`
	Feedback        *FeedbackResult        `json:"feedback,omitempty"`
	ApplicationData map[string]interface{} `json:"application_data,omitempty"`
	Documents       map[string]interface{} `json:"documents,omitempty"`
}

// OrchestratorResponse is the single actionable payload returned per request.
type OrchestratorResponse struct {
	AssistantReply string           `json:"assistant_reply"`
	Actions        []string         `json:"actions"`
	Confidence     ConfidenceScores `json:"confidence"`
	Signals        Signals          `json:"signals"`
}
