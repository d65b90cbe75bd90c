package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for extensions no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrFileTooLarge is returned when a file exceeds its family's size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrNotAFile is returned when the path names a directory or device.
	ErrNotAFile = errors.New("path is not a file")

	// ErrNoText is returned when a file yields no extractable text.
	ErrNoText = errors.New("no extractable text")

	// ErrExtractorUnavailable is returned when a family has no configured extractor.
	ErrExtractorUnavailable = errors.New("extractor not configured")
)

// FormatError reports a failure to extract text from one file.
type FormatError struct {
	Family Family
	Path   string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Family, e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
