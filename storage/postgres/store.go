package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/docket/storage"
)

// Store bundles the PostgreSQL repositories over one connection pool.
type Store struct {
	pool      *pgxpool.Pool
	documents *DocumentRepository
	chunks    *ChunkRepository
	labels    *LabelRepository
}

var _ storage.Store = (*Store)(nil)

// Open connects to url, applies the schema and returns the store.
func Open(ctx context.Context, url string, opts ...Option) (*Store, error) {
	if url == "" {
		return nil, ErrEmptyURL
	}

	o := &options{
		attempts: DefaultConnectAttempts,
		delay:    DefaultConnectDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	pool, err := connect(ctx, url, o)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{
		pool:      pool,
		documents: &DocumentRepository{pool: pool},
		chunks:    &ChunkRepository{pool: pool},
		labels:    &LabelRepository{pool: pool},
	}, nil
}

func (s *Store) Documents() storage.DocumentRepository { return s.documents }
func (s *Store) Chunks() storage.ChunkRepository       { return s.chunks }
func (s *Store) Labels() storage.LabelRepository       { return s.labels }

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
