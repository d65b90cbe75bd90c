// Package reembed recomputes the embeddings of stored chunks, typically
// after switching embedding models.
//
// Chunks are read in key order through storage.ChunkRepository.ListChunks,
// embedded in batches and written back with UpdateChunkEmbedding. Failed
// embedding calls are retried with exponential backoff.
package reembed
