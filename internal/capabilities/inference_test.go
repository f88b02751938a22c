package capabilities

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"loan-decision-pipeline/internal/common/config"
	"loan-decision-pipeline/internal/common/errors"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInferenceTestClient(t *testing.T, handler http.Handler) *InferenceClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.InferenceConfig{
		BaseURL:       srv.URL,
		Timeout:       2000,
		MaxRetries:    1,
		MaxTokens:     64,
		MaxConcurrent: 4,
	}
	return NewInferenceClient(cfg, logger.NewNoOpLogger())
}

func TestClassifyIntentNormalizesFlatShape(t *testing.T) {
	client := newInferenceTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/intent", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"label": "Loan_Inquiry", "score": 0.93})
	}))

	result, err := client.ClassifyIntent(context.Background(), "I want a loan")
	require.NoError(t, err)
	assert.Equal(t, "loan_inquiry", result.Intent)
	assert.InDelta(t, 0.93, result.Confidence, 0.0001)
}

func TestClassifyIntentNormalizesRankedList(t *testing.T) {
	client := newInferenceTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"label": "greeting", "score": 0.2},
			{"label": "loan_inquiry", "score": 0.75},
		})
	}))

	result, err := client.ClassifyIntent(context.Background(), "hello, about that loan")
	require.NoError(t, err)
	assert.Equal(t, "loan_inquiry", result.Intent)
}

func TestAnalyzeEmotionNormalizesNestedList(t *testing.T) {
	client := newInferenceTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([][]map[string]interface{}{{
			{"label": "fear", "score": 0.61},
			{"label": "joy", "score": 0.12},
		}})
	}))

	result, err := client.AnalyzeEmotion(context.Background(), "I am worried about my EMI")
	require.NoError(t, err)
	assert.Equal(t, "fear", result.Emotion)
	assert.InDelta(t, 0.61, result.Score, 0.0001)
}

func TestClassifySentimentUppercasesLabel(t *testing.T) {
	client := newInferenceTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"label": "negative", "score": 0.88})
	}))

	result, err := client.ClassifySentiment(context.Background(), "this is terrible")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNegative, result.Label)
}

func TestCheckNameSendsCandidateLabels(t *testing.T) {
	client := newInferenceTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "/zero-shot", r.URL.Path)
		assert.ElementsMatch(t,
			[]interface{}{NameLabelValid, NameLabelRandom},
			body["candidate_labels"])

		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"label": NameLabelValid, "score": 0.97},
			{"label": NameLabelRandom, "score": 0.03},
		})
	}))

	label, err := client.CheckName(context.Background(), "Ramesh Kumar")
	require.NoError(t, err)
	assert.Equal(t, NameLabelValid, label)
}

func TestGenerateTextRejectsEmptyGeneration(t *testing.T) {
	client := newInferenceTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"generated_text": "   "})
	}))

	_, err := client.GenerateText(context.Background(), "say something", 32)
	assert.Error(t, err)
}

func TestGenerateTextRetriesTransientFailure(t *testing.T) {
	attempts := 0
	client := newInferenceTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"generated_text": "Here is your offer."})
	}))

	text, err := client.GenerateText(context.Background(), "phrase the offer", 32)
	require.NoError(t, err)
	assert.Equal(t, "Here is your offer.", text)
	assert.Equal(t, 2, attempts)
}

func TestSlowGatewaySurfacesTimeoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	cfg := config.InferenceConfig{
		BaseURL:       srv.URL,
		Timeout:       20,
		MaxRetries:    0,
		MaxTokens:     16,
		MaxConcurrent: 1,
	}
	client := NewInferenceClient(cfg, logger.NewNoOpLogger())

	var out struct{}
	err := client.postWithRetry(context.Background(), "/generate", map[string]interface{}{"prompt": "hi"}, &out)
	require.Error(t, err)

	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeInferenceTimeout, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Message, "generate")
}

func TestAdviseParsesStructuredBlock(t *testing.T) {
	client := newInferenceTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"generated_text": `Based on the context: <json>{"reply": "You qualify for the offer shown.", "actions": ["apply_loan"], "confidence": 0.77}</json>`,
		})
	}))

	advice, err := client.Advise(context.Background(), `{"decision":"APPROVED"}`)
	require.NoError(t, err)
	assert.Equal(t, "You qualify for the offer shown.", advice.Reply)
	assert.Equal(t, []string{"apply_loan"}, advice.Actions)
	assert.InDelta(t, 0.77, advice.Confidence, 0.0001)
}

func TestAdvisePromptCarriesActionVocabulary(t *testing.T) {
	var prompt string
	client := newInferenceTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		prompt, _ = body["prompt"].(string)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"generated_text": `<json>{"reply": "Let me check your eligibility.", "actions": ["check_eligibility"], "confidence": 0.6}</json>`,
		})
	}))

	_, err := client.Advise(context.Background(), `{"decision":"REVIEW"}`)
	require.NoError(t, err)

	assert.Contains(t, prompt, "senior banking AI assistant")
	for _, action := range []string{
		models.ActionApplyLoan,
		models.ActionCheckEligibility,
		models.ActionBlockTransaction,
		models.ActionUploadDocuments,
		models.ActionTalkToHuman,
	} {
		assert.Contains(t, prompt, action)
	}
}
