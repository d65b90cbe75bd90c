package extract

import (
	"context"
	"strings"
	"unicode/utf8"
)

// TextExtractor reads plain text files.
type TextExtractor struct{}

// Extract returns the file contents. Invalid UTF-8 sequences are replaced
// with U+FFFD and a leading byte order mark is dropped.
func (TextExtractor) Extract(_ context.Context, _ string, data []byte) (string, error) {
	text := string(data)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	return strings.TrimPrefix(text, "\uFEFF"), nil
}
