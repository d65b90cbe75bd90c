package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/poiesic/docket/core"
)

type labelResponse struct {
	ID             core.ID `json:"id"`
	Name           string  `json:"name"`
	NormalizedName string  `json:"normalized_name"`
	Category       string  `json:"category"`
	UsageCount     int64   `json:"usage_count"`
}

type chunkResponse struct {
	DocumentName string          `json:"document_name"`
	Ordinal      int             `json:"ordinal"`
	Content      string          `json:"content"`
	Labels       []labelResponse `json:"labels"`
}

type uploadResponse struct {
	Status   string `json:"status"`
	FileType string `json:"file_type"`
	Document string `json:"document,omitempty"`
	Chunks   int    `json:"chunks"`
	Skipped  int    `json:"skipped"`
}

type labelsResponse struct {
	Labels []labelResponse `json:"labels"`
}

type searchResponse struct {
	Chunks []chunkResponse `json:"chunks"`
}

type queryResponse struct {
	Answer         string          `json:"answer"`
	SelectedLabels []labelResponse `json:"selected_labels"`
	SearchedChunks []chunkResponse `json:"searched_chunks"`
}

type uploadFileRequest struct {
	Path string `json:"path"`
}

type searchRequest struct {
	LabelIDs []core.ID `json:"label_ids"`
}

type queryRequest struct {
	Question string `json:"question"`
}

func toLabelResponses(labels []*core.Label) []labelResponse {
	out := make([]labelResponse, 0, len(labels))
	for _, l := range labels {
		out = append(out, labelResponse{
			ID:             l.ID,
			Name:           l.Name,
			NormalizedName: l.NormalizedName,
			Category:       l.Category,
			UsageCount:     l.UsageCount,
		})
	}
	return out
}

func toChunkResponses(chunks []*core.ChunkWithLabels) []chunkResponse {
	out := make([]chunkResponse, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, chunkResponse{
			DocumentName: c.Chunk.Key.DocumentName,
			Ordinal:      c.Chunk.Key.Ordinal,
			Content:      c.Chunk.Content,
			Labels:       toLabelResponses(c.Labels),
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write response", "err", err)
	}
}

func writeJSONError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, map[string]string{"error": message})
}
