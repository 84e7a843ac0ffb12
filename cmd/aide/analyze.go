package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aide-ai/aide/internal/analyze"
	"github.com/aide-ai/aide/internal/config"
	"github.com/aide-ai/aide/internal/llm"
	"github.com/aide-ai/aide/internal/store"
)

const defaultLLM = "google/gemini-2.5-flash"

func runAnalyze(args []string) error {
	var (
		path      string
		title     string
		llmFlag   string
		dbFlag    string
		noArchive bool
		verbose   bool
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--title":
			i++
			if i >= len(args) {
				return fmt.Errorf("--title requires a value")
			}
			title = args[i]
		case arg == "--llm":
			i++
			if i >= len(args) {
				return fmt.Errorf("--llm requires a value")
			}
			llmFlag = args[i]
		case arg == "--db":
			i++
			if i >= len(args) {
				return fmt.Errorf("--db requires a value")
			}
			dbFlag = args[i]
		case arg == "--no-archive":
			noArchive = true
		case arg == "--verbose":
			verbose = true
		case strings.HasPrefix(arg, "-") && arg != "-":
			return fmt.Errorf("unknown flag: %s", arg)
		default:
			if path != "" {
				return fmt.Errorf("only one document path allowed")
			}
			path = arg
		}
	}

	if path == "" {
		return fmt.Errorf("usage: aide analyze <file|-> [--title <title>] [--llm <prov/model>] [--db <path>] [--no-archive]")
	}

	document, err := readDocument(path)
	if err != nil {
		return err
	}
	if title == "" && path != "-" {
		title = path
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

	analyzer := analyze.New(provider, store.NewDirectory(s), newLogger(verbose), analyze.Config{
		Thresholds:         resolved.Thresholds,
		SectionConcurrency: resolved.SectionConcurrency,
		CallTimeout:        resolved.CallTimeout,
	})

	ctx := context.Background()
	res := analyzer.Analyze(ctx, document, title)

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if !noArchive {
		if err := s.SaveAnalysis(ctx, &store.AnalysisRecord{
			ID:         res.ID,
			Title:      title,
			Document:   document,
			ResultJSON: string(data),
			AnalyzedAt: res.AnalyzedAt,
		}); err != nil {
			return fmt.Errorf("archiving result: %w", err)
		}
	}

	fmt.Println(string(data))
	return nil
}

func readDocument(path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func newProvider(resolved config.ResolvedConfig) (llm.Provider, error) {
	effective := resolved.EffectiveLLM(defaultLLM)
	cfg, err := llm.ParseLLMFlag(effective.Value)
	if err != nil {
		return nil, err
	}
	if key := resolved.APIKeyForProvider(cfg.Provider); key.Value != "" {
		cfg.APIKey = key.Value
	}
	return llm.NewProvider(cfg)
}

func newLogger(verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.JSONFormatter{})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}
