package openai

import "fmt"

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "timestamp": {"type": ["string", "null"]},
    "raw_input": {"type": "string"},
    "qa": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "question_id": {"type": ["string", "null"]},
          "question_text": {"type": "string"},
          "answer": {"type": "string"}
        },
        "required": ["question_id", "question_text", "answer"],
        "additionalProperties": false
      }
    },
    "topic_labels": {
      "type": "array",
      "items": {"type": "string"}
    }
  },
  "required": ["timestamp", "raw_input", "qa", "topic_labels"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `You are a data-cleaning and normalization assistant for survey responses,
reflections and discussion threads.

Input is either a semi-structured export line such as
"45273.45998: Timestamp=..., Why did you join?=..., ..." or free text
(a conversation, a question followed by answers, a paragraph of notes).

Remove obvious noise: greetings, signatures, thanks, boilerplate instructions,
export artefacts and duplicated question labels. Keep every meaningful
opinion, experience, obstacle, need and suggestion. Do not invent or change
meaning and do not translate; answers stay in their original language.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- timestamp: the numeric time stamp of a semi-structured export as a string, otherwise null.
- raw_input: the input text exactly as received.
- qa, semi-structured input: every "Label=Value" pair is a candidate. question_text is the label,
  answer is the value, question_id is the label itself or a short snake_case identifier, or null.
  Drop technical fields such as the time stamp once stored. Keep empty or "no idea" answers.
- qa, free text: one item per explicit question with the respondent's cleaned answer. If there
  is no explicit question, create one item whose question_text summarizes the implicit question.
- topic_labels: short descriptive topic labels for the content, preferably in English
  (e.g. "formative_assessment", "teaching_methods", "obstacles"). Use [] if none apply.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.`

const extractionUserTemplate = `Normalize the following text into the JSON structure described above.

Input text:

%s`

const imageDescriptionPrompt = `Describe this image in detail. Transcribe any visible text exactly,
then describe tables, charts and diagrams with the values they show.
Output plain text only.`

func buildExtractionSystemPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate, extractionResponseSchema)
}

func buildExtractionUserPrompt(text string) string {
	return fmt.Sprintf(extractionUserTemplate, text)
}
