package ai

import "errors"

var (
	// ErrMalformedResponse is returned when a model's structured response
	// cannot be decoded after all attempts.
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrEmptyResponse is returned when a model returns no choices or no vector.
	ErrEmptyResponse = errors.New("empty model response")
)
