package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/poiesic/docket"
	"github.com/poiesic/docket/extract"
	"github.com/poiesic/docket/query"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	var req uploadFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		writeJSONError(w, s.logger, http.StatusBadRequest, "request body must be {\"path\": \"...\"}")
		return
	}

	if _, err := os.Stat(req.Path); errors.Is(err, os.ErrNotExist) {
		writeJSONError(w, s.logger, http.StatusNotFound, "File not found")
		return
	}

	fr, err := s.kb.IngestFile(r.Context(), req.Path)
	s.writeIngestResult(w, fr, err)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadSize)
	if err := r.ParseMultipartForm(s.config.MaxMemory); err != nil {
		writeJSONError(w, s.logger, http.StatusBadRequest, "Failed to parse multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, s.logger, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "uploaded_file"
	}

	// one directory per upload; the document keeps the client's file name
	dir := filepath.Join(s.config.UploadDir, uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("failed to create upload directory", "dir", dir, "err", err)
		writeJSONError(w, s.logger, http.StatusInternalServerError, "Failed to create upload directory")
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		writeJSONError(w, s.logger, http.StatusInternalServerError, "Failed to save file")
		return
	}
	size, err := io.Copy(out, file)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.logger.Error("failed to save upload", "file", name, "err", err)
		writeJSONError(w, s.logger, http.StatusInternalServerError, "Failed to save file")
		return
	}
	s.logger.Info("received upload", "file", name, "size", size)

	fr, err := s.kb.IngestFile(r.Context(), path)
	s.writeIngestResult(w, fr, err)
}

func (s *Server) writeIngestResult(w http.ResponseWriter, fr *docket.FileReport, err error) {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat):
		writeJSON(w, s.logger, http.StatusOK, uploadResponse{Status: "ok", FileType: "other"})
	case errors.Is(err, extract.ErrFileTooLarge):
		writeJSONError(w, s.logger, http.StatusRequestEntityTooLarge, err.Error())
	case err != nil:
		s.logger.Error("ingestion failed", "err", err)
		writeJSONError(w, s.logger, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, s.logger, http.StatusOK, uploadResponse{
			Status:   "ok",
			FileType: fr.Family.String(),
			Document: fr.Name,
			Chunks:   fr.Report.Succeeded(),
			Skipped:  fr.Report.Skipped(),
		})
	}
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.kb.Searcher().Labels(r.Context())
	if err != nil {
		s.logger.Error("failed to fetch labels", "err", err)
		writeJSONError(w, s.logger, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, s.logger, http.StatusOK, labelsResponse{Labels: toLabelResponses(labels)})
}

func (s *Server) handleSearchByLabels(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, s.logger, http.StatusBadRequest, "request body must be {\"label_ids\": [...]}")
		return
	}

	chunks, err := s.kb.Searcher().ChunksByLabels(r.Context(), req.LabelIDs...)
	if err != nil {
		s.logger.Error("failed to search by labels", "err", err)
		writeJSONError(w, s.logger, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, s.logger, http.StatusOK, searchResponse{Chunks: toChunkResponses(chunks)})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, s.logger, http.StatusBadRequest, "request body must be {\"question\": \"...\"}")
		return
	}

	answer, err := s.kb.Searcher().Ask(r.Context(), req.Question)
	if errors.Is(err, query.ErrEmptyQuestion) {
		writeJSONError(w, s.logger, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("query failed", "err", err)
		writeJSONError(w, s.logger, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, s.logger, http.StatusOK, queryResponse{
		Answer:         answer.Answer,
		SelectedLabels: toLabelResponses(answer.SelectedLabels),
		SearchedChunks: toChunkResponses(answer.Chunks),
	})
}
