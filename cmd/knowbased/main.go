// Copyright 2026 Veritom Systems
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
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/veritom/knowbase"
	"github.com/veritom/knowbase/ai"
	"github.com/veritom/knowbase/reembed"
)

func main() {
	app := &cli.App{
		Name:  "knowbased",
		Usage: "Hybrid retrieval service for support knowledge",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serveCommand,
				Flags: append(storeFlags(), append(aiFlags(),
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Address to listen on",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:  "settings",
						Usage: "Path to a TOML file persisting runtime settings",
					},
				)...),
			},
			{
				Name:   "reembed",
				Usage:  "Reembed every stored document with the configured embedding model",
				Action: reembedCommand,
				Flags: append(storeFlags(), append(aiFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to embed per API call",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N documents",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				)...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Path to the embedded store directory",
			Value:   "./knowbase_db",
		},
		&cli.StringFlag{
			Name:  "postgres-dsn",
			Usage: "Postgres connection string; selects the pgvector backend when set",
		},
	}
}

func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "ai-host",
			Usage: "Base URL shared by all AI services",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "rerank-model",
			Usage: "Reranker model name",
			Value: "bge-reranker-v2-m3",
		},
		&cli.StringFlag{
			Name:  "llm-model",
			Usage: "Chat model used for summaries",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "api-key",
			Usage: "API key sent to the AI services",
			Value: "none",
		},
		&cli.BoolFlag{
			Name:  "no-rerank",
			Usage: "Disable the neural reranker; ordering falls back to fused scores",
		},
	}
}

func openKnowledgeBase(c *cli.Context, extra ...knowbase.Option) (*knowbase.KnowledgeBase, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithRerankModel(c.String("rerank-model")),
		ai.WithLLMModel(c.String("llm-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithRerankEnabled(!c.Bool("no-rerank")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []knowbase.Option{knowbase.WithAIConfig(aiConfig)}
	if dsn := c.String("postgres-dsn"); dsn != "" {
		opts = append(opts, knowbase.WithPostgres(dsn))
	}
	opts = append(opts, extra...)

	return knowbase.Open(c.String("data-dir"), opts...)
}

func serveCommand(c *cli.Context) error {
	var opts []knowbase.Option
	if path := c.String("settings"); path != "" {
		opts = append(opts, knowbase.WithSettingsPath(path))
	}

	kb, err := openKnowledgeBase(c, opts...)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	srv, err := kb.NewServer()
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(c.String("listen"))
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func reembedCommand(c *cli.Context) error {
	kb, err := openKnowledgeBase(c)
	if err != nil {
		return fmt.Errorf("failed to open knowledge base: %w", err)
	}
	defer kb.Close()

	reembedder, err := kb.NewReembedder(&reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to build reembedder: %w", err)
	}

	return reembedder.Run(context.Background())
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
