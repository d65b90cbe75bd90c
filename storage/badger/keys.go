package badger

import (
	"encoding/binary"
	"errors"

	"github.com/poiesic/docket/core"
	"github.com/poiesic/docket/storage"
)

// Key prefixes for different data types
const (
	documentPrefix        = "doc:"
	chunkPrefix           = "chk:"
	labelPrefix           = "lbl:"
	labelNamePrefix       = "lbln:"
	labelChunkIndexPrefix = "lblchk:" // label ID -> chunk keys
	chunkLabelIndexPrefix = "chklbl:" // chunk key -> label IDs
)

// keySep terminates the document name inside composite keys so that one
// name can never be a prefix of another's key range.
const keySep = 0x00

func makeDocumentKey(name string) []byte {
	return []byte(documentPrefix + name)
}

// encodeChunkKey writes name, separator and the big-endian ordinal so
// chunks of a document sort by ordinal.
func encodeChunkKey(key core.ChunkKey) []byte {
	buf := make([]byte, 0, len(key.DocumentName)+9)
	buf = append(buf, key.DocumentName...)
	buf = append(buf, keySep)
	return binary.BigEndian.AppendUint64(buf, uint64(key.Ordinal))
}

func decodeChunkKey(data []byte) (core.ChunkKey, error) {
	if len(data) < 9 || data[len(data)-9] != keySep {
		return core.ChunkKey{}, errors.Join(storage.ErrSerializationFailed, errors.New("malformed chunk key"))
	}
	return core.ChunkKey{
		DocumentName: string(data[:len(data)-9]),
		Ordinal:      int(binary.BigEndian.Uint64(data[len(data)-8:])),
	}, nil
}

// makeChunkKey generates a key for a chunk.
// Format: prefix name 0x00 ordinal
func makeChunkKey(key core.ChunkKey) []byte {
	return append([]byte(chunkPrefix), encodeChunkKey(key)...)
}

// makeDocumentChunksPrefix covers every chunk of one document.
func makeDocumentChunksPrefix(name string) []byte {
	buf := append([]byte(chunkPrefix), name...)
	return append(buf, keySep)
}

func makeLabelKey(id core.ID) []byte {
	return append([]byte(labelPrefix), storage.MarshalID(id)...)
}

func makeLabelNameKey(normalized string) []byte {
	return []byte(labelNamePrefix + normalized)
}

// makeLabelChunkKey generates a composite key for the label -> chunk index.
// Format: prefix labelID chunkKey
func makeLabelChunkKey(labelID core.ID, key core.ChunkKey) []byte {
	return append(makeLabelChunkPrefix(labelID), encodeChunkKey(key)...)
}

func makeLabelChunkPrefix(labelID core.ID) []byte {
	return append([]byte(labelChunkIndexPrefix), storage.MarshalID(labelID)...)
}

// makeChunkLabelKey generates a composite key for the chunk -> label index.
// Format: prefix chunkKey labelID
func makeChunkLabelKey(key core.ChunkKey, labelID core.ID) []byte {
	return append(makeChunkLabelPrefix(key), storage.MarshalID(labelID)...)
}

func makeChunkLabelPrefix(key core.ChunkKey) []byte {
	return append([]byte(chunkLabelIndexPrefix), encodeChunkKey(key)...)
}
