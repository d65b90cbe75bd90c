package labels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// Store resolves label names to canonical labels and associates them with
// chunks. It is safe for concurrent use.
//
// Without WithSerializedCreation, two callers introducing near-duplicate new
// labels at the same moment may both miss each other and create two labels.
// Exact normalized-name duplicates are always rejected by the repository.
type Store struct {
	repo      storage.LabelRepository
	logger    *slog.Logger
	serialize bool
	createMu  sync.Mutex
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithSerializedCreation serializes the fuzzy-check-then-create sequence
// within this process, giving strict deduplication for a single writer.
func WithSerializedCreation() Option {
	return func(s *Store) error {
		s.serialize = true
		return nil
	}
}

// NewStore creates a Store over a label repository.
func NewStore(repo storage.LabelRepository, opts ...Option) (*Store, error) {
	if repo == nil {
		return nil, ErrLabelRepositoryRequired
	}

	s := &Store{
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "labels")
	return s, nil
}

// GetOrCreate returns the canonical label for name. An exact normalized
// match wins, then a similar existing label; only when neither exists is a
// new label stored. Usage counts are not changed.
func (s *Store) GetOrCreate(ctx context.Context, name, category string) (*core.Label, error) {
	name = strings.TrimSpace(name)
	normalized := Normalize(name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %q", ErrEmptyLabel, name)
	}

	label, err := s.repo.FindLabelByNormalizedName(ctx, normalized)
	if err == nil {
		return label, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if s.serialize {
		s.createMu.Lock()
		defer s.createMu.Unlock()
	}

	existing, err := s.repo.GetAllLabels(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, len(existing))
	byNormalized := make(map[string]*core.Label, len(existing))
	for i, l := range existing {
		candidates[i] = Candidate{Name: l.Name, NormalizedName: l.NormalizedName}
		byNormalized[l.NormalizedName] = l
	}

	if match, ok := FindSimilar(name, candidates); ok {
		s.logger.Debug("label matched existing",
			"label", name,
			"existing", match.Name,
			"similarity", match.Similarity)
		return byNormalized[match.NormalizedName], nil
	}

	created, err := s.repo.CreateLabel(ctx, &core.Label{
		Name:           name,
		NormalizedName: normalized,
		Category:       category,
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		// lost the race to a concurrent creator
		return s.repo.FindLabelByNormalizedName(ctx, normalized)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("label created", "label", name, "normalized", normalized)
	return created, nil
}

// Associate resolves each name and attaches the label to the chunk. Every
// resolved label's usage count goes up by one, whether or not the
// association already existed.
//
// Failures are per label: a failing name is skipped and the rest are still
// processed. The returned labels are in input order with failures omitted;
// the error joins one *AssociationError per failed name.
func (s *Store) Associate(ctx context.Context, key core.ChunkKey, names []string, category string) ([]*core.Label, error) {
	resolved := make([]*core.Label, 0, len(names))
	var errs []error

	for _, name := range names {
		label, err := s.associateOne(ctx, key, name, category)
		if err != nil {
			s.logger.Warn("label association failed",
				"chunk", key.String(),
				"label", name,
				"err", err)
			errs = append(errs, &AssociationError{Chunk: key, Label: name, Err: err})
			continue
		}
		resolved = append(resolved, label)
	}

	return resolved, errors.Join(errs...)
}

func (s *Store) associateOne(ctx context.Context, key core.ChunkKey, name, category string) (*core.Label, error) {
	label, err := s.GetOrCreate(ctx, name, category)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.AssociateLabel(ctx, key, label.ID); err != nil {
		return nil, err
	}

	count, err := s.repo.IncrementLabelUsage(ctx, label.ID)
	if err != nil {
		return nil, err
	}
	label.UsageCount = count
	return label, nil
}
