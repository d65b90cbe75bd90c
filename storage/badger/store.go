package badger

import (
	"github.com/poiesic/docket/storage"
)

// Store bundles the BadgerDB repositories over one Backend.
type Store struct {
	backend   *Backend
	documents *DocumentRepository
	chunks    *ChunkRepository
	labels    *LabelRepository
}

var _ storage.Store = (*Store)(nil)

// Open opens (or creates) an on-disk store at path.
func Open(path string) (*Store, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStore(backend), nil
}

func newStore(backend *Backend) *Store {
	return &Store{
		backend:   backend,
		documents: NewDocumentRepository(backend),
		chunks:    NewChunkRepository(backend),
		labels:    NewLabelRepository(backend),
	}
}

func (s *Store) Documents() storage.DocumentRepository { return s.documents }
func (s *Store) Chunks() storage.ChunkRepository       { return s.chunks }
func (s *Store) Labels() storage.LabelRepository       { return s.labels }

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
