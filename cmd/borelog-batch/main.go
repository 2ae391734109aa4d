package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/strataspect/borelog/internal/common"
	"github.com/strataspect/borelog/internal/engine"
	"github.com/strataspect/borelog/internal/export"
	"github.com/strataspect/borelog/internal/fallback"
	"github.com/strataspect/borelog/internal/ingest"
	"github.com/strataspect/borelog/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir         = flag.String("dir", "", "directory to process strata charts from (required)")
		out         = flag.String("out", "", "output directory for reviewed XLSX bore logs (defaults to <dir>/exports)")
		dbPath      = flag.String("db", "", "SQLite job store path (defaults to BORELOG_DB, use :memory: for none)")
		watch       = flag.Bool("watch", false, "keep watching the directory for new charts")
		vocabPath   = flag.String("vocab", "", "optional YAML vocabulary override file")
		templateDir = flag.String("templates", "", "optional directory of fallback template JSON files")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(*dir, "exports")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

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
	if *dbPath == "" {
		*dbPath = cfg.Batch.DBPath
	}
	if *templateDir == "" {
		*templateDir = cfg.Batch.TemplateDir
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

	jobs, err := repository.Open(ctx, *dbPath, logger)
	if err != nil {
		logger.Error("failed to open job store", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := jobs.Close(); cerr != nil {
			logger.Error("close job store", "error", cerr)
		}
	}()

	if err := os.MkdirAll(*out, 0o755); err != nil {
		logger.Error("failed to create output directory", "dir", *out, "error", err)
		os.Exit(1)
	}

	eng := engine.New(cfg, templates, logger)
	exporter := export.NewService(logger)

	processFile := func(ctx context.Context, path string) (ok bool) {
		format := engine.DetectFileType(path)
		job, err := jobs.Start(ctx, path, format)
		if err != nil {
			logger.Error("failed to record job", "file", path, "error", err)
			return false
		}

		result, err := eng.ExtractFromFile(ctx, path)
		if err != nil {
			logger.Error("extraction cancelled", "file", path, "error", err)
			return false
		}
		if err := jobs.Finish(ctx, job.ID, result); err != nil {
			logger.Error("failed to record job outcome", "file", path, "error", err)
		}

		if !result.Success {
			logger.Warn("extraction needs review",
				"file", path,
				"confidence", result.Confidence.Score,
				"guidance", result.UserGuidance)
			return false
		}

		data, err := exporter.LayersXLSX(path, result.Data)
		if err != nil {
			logger.Error("failed to export bore log", "file", path, "error", err)
			return false
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		outPath := filepath.Join(*out, base+".borelog.xlsx")
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			logger.Error("failed to write bore log", "file", outPath, "error", err)
			return false
		}
		logger.Info("bore log written", "file", outPath, "layers", len(result.Data))
		return true
	}

	files, err := ingest.DiscoverFiles(*dir)
	if err != nil {
		logger.Error("failed to discover files", "dir", *dir, "error", err)
		os.Exit(1)
	}

	processed, failures := 0, 0
	start := time.Now()
	for _, f := range files {
		if processFile(ctx, f) {
			processed++
		} else {
			failures++
		}
	}
	logger.Info("batch processing complete",
		"files", len(files),
		"processed", processed,
		"failures", failures,
		"elapsed_ms", time.Since(start).Milliseconds())

	if !*watch {
		fmt.Printf("Batch processing complete!\n")
		fmt.Printf("- Files found: %d\n", len(files))
		fmt.Printf("- Processed: %d\n", processed)
		fmt.Printf("- Needing review or failed: %d\n", failures)
		fmt.Printf("- Output: %s\n", *out)
		return
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	evCh, errCh, err := ingest.StartWatcher(watchCtx, ingest.WatchConfig{
		Roots:    []string{*dir},
		Debounce: time.Duration(cfg.Batch.WatchDebounceMS) * time.Millisecond,
	})
	if err != nil {
		logger.Error("failed to start watcher", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("watching for new charts", "dir", *dir)

	for {
		select {
		case path, open := <-evCh:
			if !open {
				return
			}
			if strings.HasPrefix(path, *out) {
				continue // skip our own exports
			}
			if err := ingest.WaitSettled(watchCtx, path); err != nil {
				logger.Warn("file never settled", "file", path, "error", err)
				continue
			}
			processFile(watchCtx, path)
		case werr, open := <-errCh:
			if !open {
				return
			}
			logger.Error("watcher error", "error", werr)
		}
	}
}
