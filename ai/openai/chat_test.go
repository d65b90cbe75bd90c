package openai

import (
	"testing"

	"github.com/poiesic/docket/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanResponse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanResponse("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanResponse("```{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, cleanResponse("  {\"a\":1}  "))
}

func TestRepairJSON_MissingOpeningQuote(t *testing.T) {
	assert.Equal(t, `{"qa": [], "topic_labels": []}`, repairJSON(`{qa": [], topic_labels": []}`))
	assert.Equal(t, `{"ok": true}`, repairJSON(`{"ok": true}`))
}

func TestParseExtraction(t *testing.T) {
	response := "```json\n" + `{
  "timestamp": "45273.45998",
  "raw_input": "Why did you join?=Curiosity",
  "qa": [{"question_id": "why_join", "question_text": "Why did you join?", "answer": "Curiosity"}],
  "topic_labels": ["motivation", "  ", "curiosity"]
}` + "\n```"

	result, err := parseExtraction(response)
	require.NoError(t, err)
	require.NotNil(t, result.Timestamp)
	assert.Equal(t, "45273.45998", *result.Timestamp)
	require.Len(t, result.QA, 1)
	require.NotNil(t, result.QA[0].QuestionID)
	assert.Equal(t, "why_join", *result.QA[0].QuestionID)
	assert.Equal(t, "Curiosity", result.QA[0].Answer)
	assert.Equal(t, []string{"motivation", "curiosity"}, result.TopicLabels)
	assert.Equal(t, "Why did you join?=Curiosity", result.RawInput)
}

func TestParseExtraction_NullTimestampAndEmptyLists(t *testing.T) {
	result, err := parseExtraction(`{"timestamp": null, "raw_input": "", "qa": [], "topic_labels": []}`)
	require.NoError(t, err)
	assert.Nil(t, result.Timestamp)
	assert.Empty(t, result.QA)
	assert.NotNil(t, result.TopicLabels)
	assert.Empty(t, result.TopicLabels)
}

func TestParseExtraction_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "I cannot help with that"},
		{"missing raw input", `{"timestamp": null, "qa": [], "topic_labels": []}`},
		{"null raw input", `{"timestamp": null, "raw_input": null, "qa": [], "topic_labels": []}`},
		{"missing qa", `{"timestamp": null, "raw_input": "x", "topic_labels": []}`},
		{"missing topic labels", `{"timestamp": null, "raw_input": "x", "qa": []}`},
		{"wrong type", `{"qa": "none", "topic_labels": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseExtraction(tt.response)
			assert.ErrorIs(t, err, ai.ErrMalformedResponse)
		})
	}
}

func TestBuildExtractionPrompts(t *testing.T) {
	system := buildExtractionSystemPrompt()
	assert.Contains(t, system, `"topic_labels"`)
	assert.Contains(t, system, `"question_text"`)

	user := buildExtractionUserPrompt("hello there")
	assert.Contains(t, user, "Input text:\n\nhello there")
}
