package main

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/aide-ai/aide/internal/analyze"
	"github.com/aide-ai/aide/internal/config"
	aidemcp "github.com/aide-ai/aide/internal/mcp"
	"github.com/aide-ai/aide/internal/store"
)

func runMCP(args []string) error {
	var (
		llmFlag string
		dbFlag  string
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--llm":
			i++
			if i >= len(args) {
				return fmt.Errorf("--llm requires a value")
			}
			llmFlag = args[i]
		case "--db":
			i++
			if i >= len(args) {
				return fmt.Errorf("--db requires a value")
			}
			dbFlag = args[i]
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		CLILLM:    llmFlag,
		CLIDBPath: dbFlag,
	})
	if err != nil {
		return err
	}

	provider, err := newProvider(resolved)
	if err != nil {
		return err
	}

	s, err := store.Open(store.Config{DBPath: resolved.DBPath.Value})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	analyzer := analyze.New(provider, store.NewDirectory(s), newLogger(false), analyze.Config{
		Thresholds:         resolved.Thresholds,
		SectionConcurrency: resolved.SectionConcurrency,
		CallTimeout:        resolved.CallTimeout,
	})

	srv := aidemcp.NewServer(aidemcp.ServerConfig{
		Store:    s,
		Analyzer: analyzer,
		Version:  version,
	})

	return server.ServeStdio(srv)
}
