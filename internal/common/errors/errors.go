// Package errors provides the standardized error taxonomy for the decision
// pipeline. Nothing in the core decision path is fatal: capability and
// infrastructure failures are classified here and degrade to documented
// fallbacks at the call site.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeRequestValidationFailed ErrorCode = "REQUEST_VALIDATION_FAILED"

	ErrCodeIntentInferenceFailed    ErrorCode = "INTENT_INFERENCE_FAILED"
	ErrCodeEmotionInferenceFailed   ErrorCode = "EMOTION_INFERENCE_FAILED"
	ErrCodeSentimentInferenceFailed ErrorCode = "SENTIMENT_INFERENCE_FAILED"
	ErrCodeNameCheckFailed          ErrorCode = "NAME_CHECK_FAILED"
	ErrCodeTextGenerationFailed     ErrorCode = "TEXT_GENERATION_FAILED"
	ErrCodeDecisionSupportFailed    ErrorCode = "DECISION_SUPPORT_FAILED"
	ErrCodeDecisionParseFailed      ErrorCode = "DECISION_PARSE_FAILED"
	ErrCodeInferenceTimeout         ErrorCode = "INFERENCE_TIMEOUT"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeAssessmentPersistFailed  ErrorCode = "ASSESSMENT_PERSIST_FAILED"
	ErrCodeSignalIndexFailed        ErrorCode = "SIGNAL_INDEX_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewRequestValidationFailedError creates a non-retryable ingress validation error.
func NewRequestValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewIntentInferenceFailedError creates a retryable intent capability error.
func NewIntentInferenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIntentInferenceFailed,
		Message:   "Intent classification capability error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmotionInferenceFailedError creates a retryable emotion capability error.
func NewEmotionInferenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmotionInferenceFailed,
		Message:   "Emotion analysis capability error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSentimentInferenceFailedError creates a retryable sentiment capability error.
func NewSentimentInferenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSentimentInferenceFailed,
		Message:   "Sentiment classification capability error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNameCheckFailedError creates a retryable name plausibility error.
func NewNameCheckFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNameCheckFailed,
		Message:   "Name plausibility capability error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTextGenerationFailedError creates a retryable text generation error.
func NewTextGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTextGenerationFailed,
		Message:   "Text generation capability error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecisionSupportFailedError creates a retryable decision-support error.
func NewDecisionSupportFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecisionSupportFailed,
		Message:   "Decision-support capability error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecisionParseFailedError creates a non-retryable structured-output parse error.
// Treated identically to capability unavailability by the orchestrator.
func NewDecisionParseFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecisionParseFailed,
		Message:   "Decision-support output could not be parsed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInferenceTimeoutError creates a retryable inference timeout error.
func NewInferenceTimeoutError(capability string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInferenceTimeout,
		Message:   fmt.Sprintf("Inference capability '%s' timeout", capability),
		Details:   "call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAssessmentPersistFailedError creates a retryable snapshot persist error.
func NewAssessmentPersistFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAssessmentPersistFailed,
		Message:   "Assessment snapshot persist failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSignalIndexFailedError creates a retryable signal indexing error.
func NewSignalIndexFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSignalIndexFailed,
		Message:   "Signal log indexing failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count per error class.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeAssessmentPersistFailed,
		ErrCodeSignalIndexFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable infrastructure errors

	case ErrCodeIntentInferenceFailed,
		ErrCodeEmotionInferenceFailed,
		ErrCodeSentimentInferenceFailed,
		ErrCodeNameCheckFailed,
		ErrCodeTextGenerationFailed,
		ErrCodeDecisionSupportFailed:
		return 2 // Capability errors: limited retry, then fallback

	case ErrCodeInferenceTimeout:
		return 1

	default:
		return 0 // Validation/parse errors: no retry, degrade immediately
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INFERENCE") || strings.Contains(codeStr, "GENERATION") ||
		strings.Contains(codeStr, "DECISION") || strings.Contains(codeStr, "NAME_CHECK"):
		return "CAPABILITY"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "PERSIST") ||
		strings.Contains(codeStr, "INDEX"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
