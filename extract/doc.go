// Package extract turns uploaded files into plain text ready for ingestion.
//
// Files are grouped into families by extension: text, tabular, document,
// audio and image. Each family has its own Extractor and size limit, and
// a Registry dispatches a file to the extractor of its family.
//
// Tabular files are rendered one record per row, each record terminated by
// chunker.RecordSeparator so the ingestion pipeline keeps rows intact.
package extract
