package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/docket"
	"github.com/poiesic/docket/ai/mock"
	"github.com/poiesic/docket/chunker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *docket.KnowledgeBase) {
	t.Helper()

	var calls atomic.Int64
	completer := &mock.MockCompleter{
		CompleteFunc: func(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
			// label selection first, then the answer
			if calls.Add(1)%2 == 1 {
				return `["rust"]`, nil
			}
			return "Rust enforces ownership.", nil
		},
	}

	kb, err := docket.Open(context.Background(),
		docket.WithInMemory(),
		docket.WithAIProvider(mock.NewMockProviderWithServices(nil, nil, completer)),
		docket.WithTokenizer(chunker.NewWordTokenizer()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { kb.Close() })

	config := DefaultConfig()
	config.UploadDir = t.TempDir()
	return New(kb, config, nil), kb
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestUploadFile(t *testing.T) {
	s, kb := newTestServer(t)

	path := filepath.Join(t.TempDir(), "rust.txt")
	require.NoError(t, os.WriteFile(path, []byte("Rust ownership rules. Borrowing is checked."), 0644))

	rec := do(t, s, http.MethodPost, "/upload-file", uploadFileRequest{Path: path})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[uploadResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "text", resp.FileType)
	assert.Equal(t, "rust.txt", resp.Document)
	assert.Positive(t, resp.Chunks)
	assert.Zero(t, resp.Skipped)

	_, err := kb.Store().Documents().GetDocument(context.Background(), "rust.txt")
	assert.NoError(t, err)
}

func TestUploadFile_Errors(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("missing file", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/upload-file", uploadFileRequest{Path: "/does/not/exist.txt"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"File not found"}`, rec.Body.String())
	})

	t.Run("bad body", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/upload-file", map[string]int{"path": 1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[map[string]string](t, rec)["error"], "path")
	})

	t.Run("unsupported type", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bundle.zip")
		require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))

		rec := do(t, s, http.MethodPost, "/upload-file", uploadFileRequest{Path: path})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "other", decode[uploadResponse](t, rec).FileType)
	})

	t.Run("extraction failure", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.pdf")
		require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0644))

		rec := do(t, s, http.MethodPost, "/upload-file", uploadFileRequest{Path: path})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotEmpty(t, decode[map[string]string](t, rec)["error"])
	})
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	s, kb := newTestServer(t)

	req := multipartRequest(t, "file", "team.csv", []byte("name,role\nAda,engineer\nGrace,admiral\n"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[uploadResponse](t, rec)
	assert.Equal(t, "tabular", resp.FileType)
	assert.Equal(t, "team.csv", resp.Document)

	chunks, err := kb.Store().Chunks().GetChunksByDocument(context.Background(), "team.csv")
	require.NoError(t, err)
	assert.Len(t, chunks, resp.Chunks)

	entries, err := os.ReadDir(s.config.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging directory is removed")
}

func TestUpload_NoFile(t *testing.T) {
	s, _ := newTestServer(t)

	req := multipartRequest(t, "other", "x.txt", []byte("hi"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"No file uploaded"}`, rec.Body.String())
}

func TestLabelsAndSearch(t *testing.T) {
	s, kb := newTestServer(t)
	ctx := context.Background()

	_, err := kb.IngestText(ctx, "rust.txt", "Rust ownership rules.")
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/labels", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	labels := decode[labelsResponse](t, rec).Labels
	require.NotEmpty(t, labels)

	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.NormalizedName
	}
	assert.Contains(t, names, "rust")

	rec = do(t, s, http.MethodPost, "/search/by-labels", searchRequest{LabelIDs: nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[searchResponse](t, rec).Chunks)

	rec = do(t, s, http.MethodPost, "/search/by-labels", map[string]any{"label_ids": []any{labels[0].ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	chunks := decode[searchResponse](t, rec).Chunks
	require.Len(t, chunks, 1)
	assert.Equal(t, "rust.txt", chunks[0].DocumentName)
	assert.NotEmpty(t, chunks[0].Labels)
}

func TestQuery(t *testing.T) {
	s, kb := newTestServer(t)
	ctx := context.Background()

	_, err := kb.IngestText(ctx, "rust.txt", "Rust ownership rules.")
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/query", queryRequest{Question: "How does rust handle memory?"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[queryResponse](t, rec)
	assert.Equal(t, "Rust enforces ownership.", resp.Answer)
	require.Len(t, resp.SelectedLabels, 1)
	assert.Equal(t, "rust", resp.SelectedLabels[0].NormalizedName)
	require.Len(t, resp.SearchedChunks, 1)
	assert.True(t, strings.HasPrefix(resp.SearchedChunks[0].Content, "Rust"))
}

func TestQuery_EmptyQuestion(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/query", queryRequest{Question: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/query", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
