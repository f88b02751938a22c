// internal/capabilities/providers.go
package capabilities

import (
	"context"

	"loan-decision-pipeline/internal/models"
)

// IntentClassifier resolves the customer's intent from raw message text.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, text string) (models.IntentResult, error)
}

// EmotionAnalyzer picks the dominant emotion in a message.
type EmotionAnalyzer interface {
	AnalyzeEmotion(ctx context.Context, text string) (models.EmotionResult, error)
}

// SentimentClassifier labels message polarity.
type SentimentClassifier interface {
	ClassifySentiment(ctx context.Context, text string) (models.SentimentResult, error)
}

// NameChecker runs a zero-shot plausibility check over a document name.
// It returns the winning candidate label.
type NameChecker interface {
	CheckName(ctx context.Context, name string) (string, error)
}

// TextGenerator produces short free-form text from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// DecisionAdvisor proposes a reply, action list, and confidence from the
// full serialized pipeline context.
type DecisionAdvisor interface {
	Advise(ctx context.Context, contextJSON string) (models.DecisionAdvice, error)
}

// Providers bundles every external capability the orchestrator consumes.
// Tests substitute fakes per field.
type Providers struct {
	Intent    IntentClassifier
	Emotion   EmotionAnalyzer
	Sentiment SentimentClassifier
	Names     NameChecker
	Generator TextGenerator
	Advisor   DecisionAdvisor
}

// Candidate labels for the zero-shot name plausibility check.
const (
	NameLabelValid  = "valid person name"
	NameLabelRandom = "random text"
)
