package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Extractor turns the bytes of one file into text.
// name is used for its extension only.
type Extractor interface {
	Extract(ctx context.Context, name string, data []byte) (string, error)
}

// Result is the text extracted from a file.
type Result struct {
	Name   string
	Family Family
	Text   string
}

// Registry maps file families to extractors.
type Registry struct {
	extractors map[Family]Extractor
	logger     *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithExtractor sets the extractor for a family.
func WithExtractor(family Family, extractor Extractor) Option {
	return func(r *Registry) {
		r.extractors[family] = extractor
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a Registry with text, tabular and document
// extractors. Audio and image extractors need external services and are
// added with WithExtractor.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		extractors: make(map[Family]Extractor),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "extract")

	if _, ok := r.extractors[FamilyText]; !ok {
		r.extractors[FamilyText] = TextExtractor{}
	}
	if _, ok := r.extractors[FamilyTabular]; !ok {
		r.extractors[FamilyTabular] = TabularExtractor{}
	}
	if _, ok := r.extractors[FamilyDocument]; !ok {
		r.extractors[FamilyDocument] = NewDocumentExtractor(r.logger)
	}
	return r
}

// Supports reports whether name has an extension with a configured extractor.
func (r *Registry) Supports(name string) bool {
	family, ok := FamilyOf(name)
	if !ok {
		return false
	}
	_, ok = r.extractors[family]
	return ok
}

// ExtractFile reads and extracts the file at path.
// A missing file returns an error satisfying errors.Is(err, os.ErrNotExist).
func (r *Registry) ExtractFile(ctx context.Context, path string) (*Result, error) {
	family, ok := FamilyOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, &FormatError{Family: family, Path: path, Err: ErrNotAFile}
	}
	if info.Size() > family.MaxSize() {
		return nil, &FormatError{Family: family, Path: path,
			Err: fmt.Errorf("%w: %d bytes (max %d bytes)", ErrFileTooLarge, info.Size(), family.MaxSize())}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Extract(ctx, path, data)
}

// Extract extracts text from file contents already in memory.
func (r *Registry) Extract(ctx context.Context, name string, data []byte) (*Result, error) {
	family, ok := FamilyOf(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(name))
	}
	if int64(len(data)) > family.MaxSize() {
		return nil, &FormatError{Family: family, Path: name,
			Err: fmt.Errorf("%w: %d bytes (max %d bytes)", ErrFileTooLarge, len(data), family.MaxSize())}
	}

	extractor, ok := r.extractors[family]
	if !ok {
		return nil, &FormatError{Family: family, Path: name, Err: ErrExtractorUnavailable}
	}

	text, err := extractor.Extract(ctx, name, data)
	if err != nil {
		r.logger.Warn("extraction failed", "file", name, "family", family.String(), "err", err)
		return nil, &FormatError{Family: family, Path: name, Err: err}
	}

	r.logger.Info("extracted file", "file", name, "family", family.String(), "length", len(text))
	return &Result{Name: filepath.Base(name), Family: family, Text: text}, nil
}
