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


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/docket/ai"
	"github.com/poiesic/docket/chunker"
	"github.com/poiesic/docket/extract"
	"github.com/poiesic/docket/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	// a missing .env is fine
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	defaults := ai.DefaultConfig()

	return &cli.App{
		Name:  "docket",
		Usage: "Ingest documents into a labeled, searchable knowledge base",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./docket-data",
				EnvVars: []string{"DOCKET_DB_PATH"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection URL; takes precedence over --db",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.BoolFlag{
				Name:  "memory",
				Usage: "Use a throwaway in-memory store",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the completion and embedding services",
				EnvVars: []string{"API_KEY"},
			},
			&cli.StringFlag{
				Name:    "completion-host",
				Usage:   "Chat completion service host URL",
				Value:   defaults.CompletionHost,
				EnvVars: []string{"COMPLETION_HOST"},
			},
			&cli.StringFlag{
				Name:    "completion-model",
				Usage:   "Chat completion model name",
				Value:   defaults.CompletionModel,
				EnvVars: []string{"COMPLETION_MODEL"},
			},
			&cli.StringFlag{
				Name:    "vision-model",
				Usage:   "Model used to describe images",
				Value:   defaults.VisionModel,
				EnvVars: []string{"VISION_MODEL"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL (defaults to completion-host)",
				EnvVars: []string{"EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   defaults.EmbeddingModel,
				EnvVars: []string{"EMBEDDING_MODEL"},
			},
			&cli.DurationFlag{
				Name:    "request-timeout",
				Usage:   "Timeout for each AI service call",
				Value:   defaults.RequestTimeout,
				EnvVars: []string{"REQUEST_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "whisper-url",
				Usage:   "Whisper-compatible transcription server for audio files",
				Value:   extract.DefaultWhisperURL,
				EnvVars: []string{"WHISPER_URL"},
			},
			&cli.StringFlag{
				Name:    "whisper-model",
				Usage:   "Transcription model name",
				Value:   extract.DefaultWhisperModel,
				EnvVars: []string{"WHISPER_MODEL"},
			},
			&cli.IntFlag{
				Name:    "chunk-size",
				Usage:   "Target chunk size in tokens",
				Value:   chunker.DefaultTargetTokens,
				EnvVars: []string{"CHUNK_SIZE"},
			},
			&cli.IntFlag{
				Name:    "chunk-overlap",
				Usage:   "Tokens shared by consecutive prose windows",
				Value:   chunker.DefaultOverlapTokens,
				EnvVars: []string{"CHUNK_OVERLAP"},
			},
			&cli.IntFlag{
				Name:    "concurrency",
				Usage:   "Chunks processed at once per document",
				Value:   ingestion.DefaultConcurrency,
				EnvVars: []string{"CONCURRENCY"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "host",
						Usage:   "Interface to listen on",
						Value:   "127.0.0.1",
						EnvVars: []string{"HOST"},
					},
					&cli.StringFlag{
						Name:    "port",
						Usage:   "Port to listen on",
						Value:   "8080",
						EnvVars: []string{"PORT"},
					},
					&cli.StringFlag{
						Name:    "upload-dir",
						Usage:   "Directory that stages multipart uploads",
						EnvVars: []string{"UPLOAD_DIR"},
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Extract and ingest one or more files",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "parallel",
						Usage: "Files ingested at once",
						Value: 2,
					},
				},
			},
			{
				Name:   "labels",
				Usage:  "List labels, most used first",
				Action: labelsCommand,
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the ingested documents",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Recompute every chunk embedding with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed per request",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
