package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "label name", content: "formative_assessment"},
		{name: "empty string", content: ""},
		{name: "long content", content: "This is a much longer piece of content that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("teaching_methods")
	id2 := IDFromContent("teaching_method")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestChunkKey_String(t *testing.T) {
	key := ChunkKey{DocumentName: "survey.csv", Ordinal: 3}
	if got := key.String(); got != "survey.csv#3" {
		t.Errorf("String() = %q, want %q", got, "survey.csv#3")
	}
}

func TestExtraction_MarshalEmptyCollections(t *testing.T) {
	e := &Extraction{RawInput: "hello"}

	got, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"timestamp":null,"raw_input":"hello","qa":[],"topic_labels":[]}`
	if got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
	if e.QA != nil || e.TopicLabels != nil {
		t.Errorf("Marshal() must not mutate the receiver")
	}
}

func TestParseExtraction(t *testing.T) {
	data := `{"timestamp":"45273.4599","raw_input":"x","qa":[{"question_id":null,"question_text":"Why?","answer":"Because"}],"topic_labels":["obstacles"]}`

	e, err := ParseExtraction(data)
	if err != nil {
		t.Fatalf("ParseExtraction() error = %v", err)
	}
	if e.Timestamp == nil || *e.Timestamp != "45273.4599" {
		t.Errorf("Timestamp = %v, want 45273.4599", e.Timestamp)
	}
	if len(e.QA) != 1 || e.QA[0].QuestionID != nil || e.QA[0].Answer != "Because" {
		t.Errorf("QA = %+v", e.QA)
	}
	if len(e.TopicLabels) != 1 || e.TopicLabels[0] != "obstacles" {
		t.Errorf("TopicLabels = %v", e.TopicLabels)
	}

	if _, err := ParseExtraction("not json"); err == nil {
		t.Errorf("ParseExtraction() expected error for malformed input")
	}
}
