package chunker

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE vocabulary used for token budgeting.
const DefaultEncoding = "cl100k_base"

// Tokenizer converts between text and token IDs.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	Decode(tokens []int) (string, error)
}

// TiktokenTokenizer is a Tokenizer backed by a tiktoken BPE encoding.
type TiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

var _ Tokenizer = (*TiktokenTokenizer)(nil)

// NewTiktokenTokenizer loads the named encoding. The vocabulary is loaded
// once; create a single tokenizer at startup and share it.
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, &TokenizationError{Op: "init", Err: err}
	}
	return &TiktokenTokenizer{enc: enc}, nil
}

// Encode tokenizes text. Special tokens appearing in the text are encoded
// as ordinary special tokens rather than rejected.
func (t *TiktokenTokenizer) Encode(text string) ([]int, error) {
	return t.enc.Encode(text, []string{"all"}, nil), nil
}

// Decode converts tokens back to text. A window boundary can fall inside a
// multi-byte character, so invalid UTF-8 sequences are dropped.
func (t *TiktokenTokenizer) Decode(tokens []int) (string, error) {
	return strings.ToValidUTF8(t.enc.Decode(tokens), ""), nil
}
