package core

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is a named body of extracted text. Names are unique;
// re-ingesting a name replaces the stored content.
type Document struct {
	Name      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChunkKey identifies a chunk by its owning document and position.
type ChunkKey struct {
	DocumentName string
	Ordinal      int
}

// String returns the key as "<document>#<ordinal>".
func (k ChunkKey) String() string {
	return fmt.Sprintf("%s#%d", k.DocumentName, k.Ordinal)
}

// Chunk is a persisted unit of a document: the chunk text, the structured
// extraction the model produced for it and the embedding of that extraction.
type Chunk struct {
	Key        ChunkKey
	Content    string
	TokenCount int
	Extraction string    // serialized Extraction (JSON)
	Embedding  []float32 // embedding of Extraction
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// QAPair is a single question and answer recovered from a chunk.
type QAPair struct {
	QuestionID   *string `json:"question_id"`
	QuestionText string  `json:"question_text"`
	Answer       string  `json:"answer"`
}

// Extraction is the structured result of analysing one chunk.
type Extraction struct {
	Timestamp   *string  `json:"timestamp"`
	RawInput    string   `json:"raw_input"`
	QA          []QAPair `json:"qa"`
	TopicLabels []string `json:"topic_labels"`
}

// Marshal serializes the extraction to its canonical JSON form.
// Nil slices are written as empty arrays.
func (e *Extraction) Marshal() (string, error) {
	out := *e
	if out.QA == nil {
		out.QA = []QAPair{}
	}
	if out.TopicLabels == nil {
		out.TopicLabels = []string{}
	}
	data, err := json.Marshal(&out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ParseExtraction decodes a serialized extraction.
func ParseExtraction(data string) (*Extraction, error) {
	var e Extraction
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidExtraction, err)
	}
	return &e, nil
}

// Label is a canonical topic tag shared across chunks.
type Label struct {
	ID             ID
	Name           string // display form, first spelling seen
	NormalizedName string // unique, canonical form
	Category       string
	UsageCount     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ChunkWithLabels pairs a chunk with every label associated to it.
type ChunkWithLabels struct {
	Chunk  *Chunk
	Labels []*Label
}
