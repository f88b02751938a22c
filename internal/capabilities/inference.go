// internal/capabilities/inference.go
package capabilities

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"loan-decision-pipeline/internal/common/config"
	"loan-decision-pipeline/internal/common/errors"
	httpclient "loan-decision-pipeline/internal/common/http"
	"loan-decision-pipeline/internal/common/logger"
	"loan-decision-pipeline/internal/models"
)

// InferenceClient implements every capability interface against the model
// inference gateway. Responses come back in uneven shapes (a flat object, a
// ranked list, or a nested ranked list depending on the upstream model), so
// each method normalizes at this boundary before core logic sees the value.
type InferenceClient struct {
	baseURL    string
	maxTokens  int
	maxRetries int
	timeout    time.Duration
	client     *httpclient.Client
	logger     logger.Logger
}

func NewInferenceClient(cfg config.InferenceConfig, log logger.Logger) *InferenceClient {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	return &InferenceClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxTokens:  cfg.MaxTokens,
		maxRetries: cfg.MaxRetries,
		timeout:    timeout,
		client:     httpclient.NewClient(timeout, cfg.MaxConcurrent),
		logger:     log.WithFields(map[string]interface{}{"component": "inference-client"}),
	}
}

// labelScore is the wire shape every classifier variant reduces to.
type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// decodeRanked accepts {label,score}, [{label,score},...], or
// [[{label,score},...]] and returns the ranked list.
func decodeRanked(raw json.RawMessage) ([]labelScore, error) {
	var flat labelScore
	if err := json.Unmarshal(raw, &flat); err == nil && flat.Label != "" {
		return []labelScore{flat}, nil
	}

	var list []labelScore
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list, nil
	}

	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 && len(nested[0]) > 0 {
		return nested[0], nil
	}

	return nil, fmt.Errorf("unrecognized classifier response shape: %s", string(raw))
}

func topRanked(ranked []labelScore) labelScore {
	best := ranked[0]
	for _, entry := range ranked[1:] {
		if entry.Score > best.Score {
			best = entry
		}
	}
	return best
}

// postRanked POSTs a classification request and normalizes the ranked
// response, retrying transient failures.
func (c *InferenceClient) postRanked(ctx context.Context, path string, payload interface{}) ([]labelScore, error) {
	var raw json.RawMessage
	if err := c.postWithRetry(ctx, path, payload, &raw); err != nil {
		return nil, err
	}
	return decodeRanked(raw)
}

func (c *InferenceClient) postWithRetry(ctx context.Context, path string, payload, out interface{}) error {
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.client.PostJSON(callCtx, url, payload, out)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if stderrors.Is(lastErr, context.DeadlineExceeded) {
		return errors.NewInferenceTimeoutError(strings.TrimPrefix(path, "/"))
	}
	return lastErr
}

func (c *InferenceClient) ClassifyIntent(ctx context.Context, text string) (models.IntentResult, error) {
	ranked, err := c.postRanked(ctx, "/intent", map[string]interface{}{"text": text})
	if err != nil {
		return models.IntentResult{}, errors.NewIntentInferenceFailedError(err)
	}
	top := topRanked(ranked)
	return models.IntentResult{
		Intent:     strings.ToLower(top.Label),
		Confidence: top.Score,
	}, nil
}

func (c *InferenceClient) AnalyzeEmotion(ctx context.Context, text string) (models.EmotionResult, error) {
	ranked, err := c.postRanked(ctx, "/emotion", map[string]interface{}{"text": text})
	if err != nil {
		return models.EmotionResult{}, errors.NewEmotionInferenceFailedError(err)
	}
	top := topRanked(ranked)
	return models.EmotionResult{
		Emotion: strings.ToLower(top.Label),
		Score:   top.Score,
	}, nil
}

func (c *InferenceClient) ClassifySentiment(ctx context.Context, text string) (models.SentimentResult, error) {
	ranked, err := c.postRanked(ctx, "/sentiment", map[string]interface{}{"text": text})
	if err != nil {
		return models.SentimentResult{}, errors.NewSentimentInferenceFailedError(err)
	}
	top := topRanked(ranked)
	return models.SentimentResult{
		Label: strings.ToUpper(top.Label),
		Score: top.Score,
	}, nil
}

func (c *InferenceClient) CheckName(ctx context.Context, name string) (string, error) {
	payload := map[string]interface{}{
		"text":             name,
		"candidate_labels": []string{NameLabelValid, NameLabelRandom},
	}
	ranked, err := c.postRanked(ctx, "/zero-shot", payload)
	if err != nil {
		return "", errors.NewNameCheckFailedError(err)
	}
	return topRanked(ranked).Label, nil
}

type generateResponse struct {
	GeneratedText string `json:"generated_text"`
}

func (c *InferenceClient) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	payload := map[string]interface{}{
		"prompt":     prompt,
		"max_tokens": maxTokens,
	}

	var resp generateResponse
	if err := c.postWithRetry(ctx, "/generate", payload, &resp); err != nil {
		return "", errors.NewTextGenerationFailedError(err)
	}

	text := strings.TrimSpace(resp.GeneratedText)
	if text == "" {
		return "", errors.NewTextGenerationFailedError(fmt.Errorf("empty generation for prompt of %d chars", len(prompt)))
	}
	return text, nil
}

// Advise asks the generator for a structured decision proposal. The model
// wraps its JSON in prose, so the response goes through block extraction and
// schema validation before it is trusted.
func (c *InferenceClient) Advise(ctx context.Context, contextJSON string) (models.DecisionAdvice, error) {
	prompt := "You are a senior banking AI assistant. Given the assessment context below, choose the " +
		"next actions from [apply_loan, check_eligibility, block_transaction, upload_documents, talk_to_human] " +
		"and respond with a <json>{\"reply\": string, \"actions\": [string], \"confidence\": number}</json> " +
		"block.\n\nContext:\n" + contextJSON

	text, err := c.GenerateText(ctx, prompt, c.maxTokens)
	if err != nil {
		return models.DecisionAdvice{}, errors.NewDecisionSupportFailedError(err)
	}

	advice, err := ExtractDecisionAdvice(text)
	if err != nil {
		return models.DecisionAdvice{}, err
	}
	return advice, nil
}
