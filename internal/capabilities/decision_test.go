package capabilities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDecisionAdviceFromTaggedBlock(t *testing.T) {
	text := `Sure, here is my assessment.
<json>{"reply": "Your loan looks good, let us proceed.", "actions": ["apply_loan"], "confidence": 0.82}</json>
Let me know if you need anything else.`

	advice, err := ExtractDecisionAdvice(text)
	require.NoError(t, err)
	assert.Equal(t, "Your loan looks good, let us proceed.", advice.Reply)
	assert.Equal(t, []string{"apply_loan"}, advice.Actions)
	assert.InDelta(t, 0.82, advice.Confidence, 0.0001)
}

func TestExtractDecisionAdviceFromBareJSON(t *testing.T) {
	text := `The model suggests: {"reply": "Please upload your documents first.", "actions": ["upload_documents", "talk_to_human"], "confidence": 0.6} end of output`

	advice, err := ExtractDecisionAdvice(text)
	require.NoError(t, err)
	assert.Equal(t, "Please upload your documents first.", advice.Reply)
	assert.Equal(t, []string{"upload_documents", "talk_to_human"}, advice.Actions)
}

func TestExtractDecisionAdviceSkipsMalformedCandidates(t *testing.T) {
	text := `{"broken": } and then {"note": "no actions here"} finally ` +
		`{"reply": "All set.", "actions": ["check_eligibility"], "confidence": 0.7}`

	advice, err := ExtractDecisionAdvice(text)
	require.NoError(t, err)
	assert.Equal(t, "All set.", advice.Reply)
	assert.Equal(t, []string{"check_eligibility"}, advice.Actions)
}

func TestExtractDecisionAdviceHandlesNestedObjects(t *testing.T) {
	text := `prefix {"reply": "Nested {braces} inside strings are fine.", "actions": [], "confidence": 0.5} suffix`

	advice, err := ExtractDecisionAdvice(text)
	require.NoError(t, err)
	assert.Equal(t, "Nested {braces} inside strings are fine.", advice.Reply)
}

func TestExtractDecisionAdviceDefaultsMissingConfidence(t *testing.T) {
	text := `{"reply": "Happy to help you with that.", "actions": ["clarify_intent"]}`

	advice, err := ExtractDecisionAdvice(text)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, advice.Confidence, 0.0001)
}

func TestExtractDecisionAdviceFailsWithoutJSON(t *testing.T) {
	_, err := ExtractDecisionAdvice("I am sorry, I cannot produce structured output right now.")
	assert.Error(t, err)
}

func TestScanJSONObjectsFindsTopLevelBlocksOnly(t *testing.T) {
	blocks := scanJSONObjects(`a {"x": {"y": 1}} b {"z": 2} c`)
	require.Len(t, blocks, 2)
	assert.Equal(t, `{"x": {"y": 1}}`, blocks[0])
	assert.Equal(t, `{"z": 2}`, blocks[1])
}
