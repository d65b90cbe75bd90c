package query

import (
	"fmt"
	"strings"

	"github.com/poiesic/docket/core"
)

const labelSelectionPrompt = `You are a label selection assistant. Given a user's question and a list of available labels, select the most relevant labels that would help answer the question.

Return ONLY a JSON array of label names exactly as listed, like: ["teaching_methods", "obstacles"]

Rules:
- Select 1-5 most relevant labels
- If the question is broad, select more labels
- If the question is specific, select fewer labels
- Return an empty array [] if no labels are relevant`

const answerPrompt = `You are a helpful educational assistant. Answer the user's question based ONLY on the provided context.

Rules:
- Be concise and direct
- If the context doesn't contain enough information, say so
- Don't make up information
- Cite specific details from the context when possible`

const (
	// NoDataAnswer is returned when the knowledge base has no labels yet.
	NoDataAnswer = "No data has been uploaded yet. Please upload some files first."
	// NoLabelsAnswer is returned when no label is relevant to the question.
	NoLabelsAnswer = "I couldn't find any relevant data for your question. Try rephrasing or uploading more content."
	// NoChunksAnswer is returned when the selected labels carry no chunks.
	NoChunksAnswer = "No relevant content found for the selected topics."
)

func buildLabelSelectionPrompt(question string, labels []*core.Label) string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = fmt.Sprintf("- %s (used %d times)", l.NormalizedName, l.UsageCount)
	}
	return fmt.Sprintf("Question: %s\n\nAvailable labels:\n%s\n\nSelect relevant labels:",
		question, strings.Join(names, "\n"))
}

// chunkContext renders a chunk as its question-answer pairs, falling back
// to the raw chunk text when the extraction cannot be read.
func chunkContext(chunk *core.Chunk) string {
	extraction, err := core.ParseExtraction(chunk.Extraction)
	if err != nil || len(extraction.QA) == 0 {
		return chunk.Content
	}
	pairs := make([]string, len(extraction.QA))
	for i, qa := range extraction.QA {
		pairs[i] = fmt.Sprintf("Q: %s\nA: %s", qa.QuestionText, qa.Answer)
	}
	return strings.Join(pairs, "\n")
}

func buildAnswerPrompt(question string, chunks []*core.ChunkWithLabels) string {
	contexts := make([]string, len(chunks))
	for i, c := range chunks {
		contexts[i] = chunkContext(c.Chunk)
	}
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nAnswer:",
		strings.Join(contexts, "\n\n---\n\n"), question)
}
