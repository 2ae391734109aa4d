package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/strataspect/borelog/internal/common"
	"github.com/strataspect/borelog/internal/engine"
	"github.com/strataspect/borelog/internal/fallback"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		file        = flag.String("file", "", "strata chart file to extract (required)")
		vocabPath   = flag.String("vocab", "", "optional YAML vocabulary override file")
		templateDir = flag.String("templates", "", "optional directory of fallback template JSON files")
		timeout     = flag.Duration("timeout", 2*time.Minute, "extraction timeout")
	)
	flag.Parse()

	if *file == "" {
		printError("Error: --file is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *vocabPath != "" {
		vocab, err := common.LoadVocabulary(*vocabPath)
		if err != nil {
			logger.Error("failed to load vocabulary", "path", *vocabPath, "error", err)
			os.Exit(1)
		}
		cfg.Vocabulary = vocab
	}

	templates := fallback.BuiltinTemplates()
	if *templateDir != "" {
		var err error
		templates, err = fallback.LoadTemplateDir(*templateDir)
		if err != nil {
			logger.Error("failed to load templates", "dir", *templateDir, "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	eng := engine.New(cfg, templates, logger)

	start := time.Now()
	result, err := eng.ExtractFromFile(ctx, *file)
	if err != nil {
		logger.Error("extraction cancelled",
			"file", *file, "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("failed to encode result", "error", err)
		os.Exit(1)
	}

	if !result.Success {
		os.Exit(3)
	}
}
