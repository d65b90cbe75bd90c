// Package ingestion provides pipeline orchestration for ingesting documents.
//
// The Pipeline type manages the ingestion workflow for one document:
//   - Upserting the raw document text
//   - Cutting the text into token-bounded chunks
//   - Extracting, embedding, persisting and labeling each chunk concurrently
//
// Chunks are processed by a bounded worker pool. A chunk that fails at any
// stage is skipped without affecting its siblings; Ingest reports every
// chunk's outcome but only fails when the document itself cannot be stored
// or chunked.
package ingestion
