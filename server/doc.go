// Package server exposes a KnowledgeBase over HTTP.
//
// Routes:
//
//	GET  /health             liveness probe
//	POST /upload-file        ingest a file already on the server's disk
//	POST /upload             ingest a multipart upload (field "file")
//	GET  /labels             list labels, most used first
//	POST /search/by-labels   chunks carrying any of the given label IDs
//	POST /query              answer a question from the stored chunks
//
// Every error response has the form {"error": "..."}.
package server
