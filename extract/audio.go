package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultWhisperURL is the transcription server used when none is configured.
	DefaultWhisperURL = "http://localhost:8000"
	// DefaultWhisperModel is the transcription model requested.
	DefaultWhisperModel = "base"

	transcriptionPath = "/v1/audio/transcriptions"
)

// WhisperTranscriber sends audio to an OpenAI-compatible transcription
// server such as faster-whisper.
type WhisperTranscriber struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

// transcriptionResponse is the JSON response from /v1/audio/transcriptions.
type transcriptionResponse struct {
	Text string `json:"text"`
}

// NewWhisperTranscriber creates a transcriber for the server at endpoint.
// A zero timeout means no client-side limit.
func NewWhisperTranscriber(endpoint, model string, timeout time.Duration, logger *slog.Logger) *WhisperTranscriber {
	if endpoint == "" {
		endpoint = DefaultWhisperURL
	}
	if model == "" {
		model = DefaultWhisperModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WhisperTranscriber{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With("extractor", "audio"),
	}
}

// Extract transcribes an audio file.
func (w *WhisperTranscriber) Extract(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := form.WriteField("model", w.model); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	url := w.endpoint + transcriptionPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	w.logger.Debug("transcribing audio", "file", name, "size", len(data))
	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(respBody))
	}

	var result transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if strings.TrimSpace(result.Text) == "" {
		return "", ErrNoText
	}
	return result.Text, nil
}
