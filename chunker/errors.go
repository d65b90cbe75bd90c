package chunker

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTarget is returned when TargetTokens is not positive.
	ErrInvalidTarget = errors.New("target tokens must be positive")

	// ErrTokenizerRequired is returned when New is called without a tokenizer.
	ErrTokenizerRequired = errors.New("tokenizer required")
)

// TokenizationError reports a tokenizer failure. It is fatal to a chunking
// call since no chunk can be produced without token counts.
type TokenizationError struct {
	Op  string // "init", "encode" or "decode"
	Err error
}

func (e *TokenizationError) Error() string {
	return fmt.Sprintf("tokenizer %s failed: %v", e.Op, e.Err)
}

func (e *TokenizationError) Unwrap() error {
	return e.Err
}
