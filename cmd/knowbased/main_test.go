package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli/v2"
)

func findStringFlag(flags []cli.Flag, name string) *cli.StringFlag {
	for _, flag := range flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func TestAIFlagDefaults(t *testing.T) {
	flags := aiFlags()

	host := findStringFlag(flags, "ai-host")
	if assert.NotNil(t, host) {
		assert.Equal(t, "http://localhost:11434/v1", host.Value)
	}

	model := findStringFlag(flags, "embedding-model")
	if assert.NotNil(t, model) {
		assert.Equal(t, "embeddinggemma", model.Value)
	}

	rerank := findStringFlag(flags, "rerank-model")
	if assert.NotNil(t, rerank) {
		assert.Equal(t, "bge-reranker-v2-m3", rerank.Value)
	}
}

func TestStoreFlagDefaults(t *testing.T) {
	flags := storeFlags()

	dataDir := findStringFlag(flags, "data-dir")
	if assert.NotNil(t, dataDir) {
		assert.Equal(t, "./knowbase_db", dataDir.Value)
	}

	dsn := findStringFlag(flags, "postgres-dsn")
	if assert.NotNil(t, dsn) {
		assert.Empty(t, dsn.Value)
	}
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	app := &cli.App{
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Value: "info"},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	assert.NoError(t, app.Run([]string{"knowbased", "--log-level", "debug"}))
	assert.Error(t, app.Run([]string{"knowbased", "--log-level", "loud"}))
}
