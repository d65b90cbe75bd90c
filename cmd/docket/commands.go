package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/poiesic/docket"
	"github.com/poiesic/docket/ai"
	"github.com/poiesic/docket/chunker"
	"github.com/poiesic/docket/reembed"
	"github.com/poiesic/docket/server"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// aiConfig builds the AI configuration from global flags.
func aiConfig(c *cli.Context) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithCompletionHost(c.String("completion-host")),
		ai.WithEmbeddingHost(c.String("completion-host")),
		ai.WithCompletionModel(c.String("completion-model")),
		ai.WithVisionModel(c.String("vision-model")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithRequestTimeout(c.Duration("request-timeout")),
	}
	if host := c.String("embedding-host"); host != "" {
		opts = append(opts, ai.WithEmbeddingHost(host))
	}
	return ai.NewConfig(opts...)
}

// backendOption picks the store: --memory, then --database-url, then --db.
func backendOption(c *cli.Context) docket.Option {
	switch {
	case c.Bool("memory"):
		return docket.WithInMemory()
	case c.String("database-url") != "":
		return docket.WithPostgres(c.String("database-url"))
	default:
		return docket.WithBadger(c.String("db"))
	}
}

func openKnowledgeBase(ctx context.Context, c *cli.Context) (*docket.KnowledgeBase, error) {
	return docket.Open(ctx,
		backendOption(c),
		docket.WithAIConfig(aiConfig(c)),
		docket.WithChunkParams(chunker.Params{
			Separator:     chunker.DefaultSeparator,
			TargetTokens:  c.Int("chunk-size"),
			OverlapTokens: c.Int("chunk-overlap"),
		}),
		docket.WithConcurrency(c.Int("concurrency")),
		docket.WithWhisper(c.String("whisper-url"), c.String("whisper-model")),
	)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signalContext(c.Context)
	defer stop()

	kb, err := openKnowledgeBase(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	config := server.DefaultConfig()
	config.Host = c.String("host")
	config.Port = c.String("port")
	if dir := c.String("upload-dir"); dir != "" {
		config.UploadDir = dir
	}

	return server.New(kb, config, nil).ListenAndServe(ctx)
}

func ingestCommand(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		return errors.New("at least one FILE is required")
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	kb, err := openKnowledgeBase(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	return ingestFiles(ctx, kb, paths, c.Int("parallel"), c.App.Writer)
}

// ingestFiles ingests paths with at most parallel files in flight. A failed
// file does not stop the others; all failures are returned joined.
func ingestFiles(ctx context.Context, kb *docket.KnowledgeBase, paths []string, parallel int, out io.Writer) error {
	if parallel <= 0 {
		parallel = 1
	}

	errs := make([]error, len(paths))
	lines := make([]string, len(paths))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, path := range paths {
		g.Go(func() error {
			fr, err := kb.IngestFile(ctx, path)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
				lines[i] = fmt.Sprintf("FAIL  %s: %v", path, err)
				return nil
			}
			lines[i] = fmt.Sprintf("OK    %s (%s): %d chunks stored, %d skipped",
				fr.Name, fr.Family, fr.Report.Succeeded(), fr.Report.Skipped())
			return nil
		})
	}
	_ = g.Wait()

	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return errors.Join(errs...)
}

func labelsCommand(c *cli.Context) error {
	kb, err := openKnowledgeBase(c.Context, c)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	return printLabels(c.Context, kb, c.App.Writer)
}

func printLabels(ctx context.Context, kb *docket.KnowledgeBase, out io.Writer) error {
	labels, err := kb.Searcher().Labels(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USES\tLABEL\tID")
	for _, l := range labels {
		fmt.Fprintf(w, "%d\t%s\t%d\n", l.UsageCount, l.Name, l.ID)
	}
	return w.Flush()
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(question) == "" {
		return errors.New("a QUESTION is required")
	}

	kb, err := openKnowledgeBase(c.Context, c)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	answer, err := kb.Searcher().Ask(c.Context, question)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, answer.Answer)
	if len(answer.Chunks) > 0 {
		fmt.Fprintln(c.App.Writer)
		fmt.Fprintln(c.App.Writer, "Sources:")
		for _, cl := range answer.Chunks {
			fmt.Fprintf(c.App.Writer, "  %s\n", cl.Chunk.Key)
		}
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	ctx, stop := signalContext(c.Context)
	defer stop()

	kb, err := openKnowledgeBase(ctx, c)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	config := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		MaxRetryDelay:  reembed.DefaultConfig().MaxRetryDelay,
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", config.BatchSize)
	}

	if _, err := kb.Reembed(ctx, config, os.Stderr); err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	return nil
}
