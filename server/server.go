// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/poiesic/docket"
	"github.com/urfave/negroni"
)

// Config holds HTTP server settings.
type Config struct {
	Host string
	Port string

	// UploadDir stages multipart uploads until they are ingested.
	UploadDir string

	// MaxUploadSize caps a multipart request body.
	MaxUploadSize int64

	// MaxMemory is how much of a multipart form is held in memory; the
	// rest spills to temporary files.
	MaxMemory int64

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          "8080",
		UploadDir:     filepath.Join(os.TempDir(), "docket-uploads"),
		MaxUploadSize: 64 << 20,
		MaxMemory:     10 << 20,
		ReadTimeout:   time.Minute,
		// ingestion runs inside the request
		WriteTimeout:    30 * time.Minute,
		IdleTimeout:     time.Minute,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server serves a KnowledgeBase over HTTP.
type Server struct {
	kb     *docket.KnowledgeBase
	config Config
	logger *slog.Logger
}

// New creates a server. A nil logger selects slog.Default().
func New(kb *docket.KnowledgeBase, config Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		kb:     kb,
		config: config,
		logger: logger.With("component", "server"),
	}
}

// Routes returns the router with every endpoint registered.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/upload-file", s.handleUploadFile).Methods(http.MethodPost)
	r.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/labels", s.handleLabels).Methods(http.MethodGet)
	r.HandleFunc("/search/by-labels", s.handleSearchByLabels).Methods(http.MethodPost)
	r.HandleFunc("/query", s.handleQuery).Methods(http.MethodPost)
	return r
}

// Handler returns the routes wrapped in recovery and request logging.
func (s *Server) Handler() http.Handler {
	n := negroni.New()
	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())
	n.UseHandler(s.Routes())
	return n
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         net.JoinHostPort(s.config.Host, s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
