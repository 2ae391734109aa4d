// Package engine coordinates the extraction pipeline: file-type
// detection, parser strategy fallbacks, depth normalization, validation
// with automated repair, layer detection, confidence scoring, error
// classification and recovery handoff.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/strataspect/borelog/constants"
	"github.com/strataspect/borelog/internal/classify"
	"github.com/strataspect/borelog/internal/common"
	"github.com/strataspect/borelog/internal/depth"
	"github.com/strataspect/borelog/internal/entity"
	"github.com/strataspect/borelog/internal/extract"
	"github.com/strataspect/borelog/internal/fallback"
	"github.com/strataspect/borelog/internal/layers"
	excelparser "github.com/strataspect/borelog/internal/parser/excel"
	pdfparser "github.com/strataspect/borelog/internal/parser/pdf"
	"github.com/strataspect/borelog/internal/validation"
)

// Engine is the only entry point external callers use. One instance is
// reusable across files; all per-call state is cleared by Reset between
// invocations. Independent instances are safe to run concurrently.
type Engine struct {
	cfg    common.ExtractionConfig
	logger *slog.Logger

	excel      *excelparser.Parser
	pdf        *pdfparser.Parser
	normalizer *depth.Normalizer
	validator  *validation.Service
	classifier *classify.Classifier
	detector   *layers.Detector
	scorer     *layers.Scorer
	fallback   *fallback.Manager

	// in-flight state for the current ExtractFromFile call
	attempts []entity.Attempt
	errs     []string
	warnings []string
}

// New builds an engine with the injected configuration and vocabulary.
// Empty vocabulary fields fall back to the built-in tables.
func New(cfg *common.Config, templates *fallback.TemplateLibrary, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = common.LoadConfig()
	}

	units := depth.DefaultUnits()
	if len(cfg.Vocabulary.Units) > 0 {
		units = depth.UnitTable(cfg.Vocabulary.Units)
	}
	materials := cfg.Vocabulary.Materials

	return &Engine{
		cfg:        cfg.Extraction,
		logger:     logger,
		excel:      excelparser.New(materials, logger),
		pdf:        pdfparser.New(materials, cfg.Extraction.MaxCorrelationDistance, logger),
		normalizer: depth.NewNormalizer(units, logger),
		validator:  validation.NewService(logger),
		classifier: classify.New(logger),
		detector:   layers.NewDetector(logger),
		scorer: layers.NewScorer(layers.ScorerConfig{
			MinThreshold:  cfg.Extraction.MinConfidenceThreshold,
			HighThreshold: cfg.Extraction.HighConfidenceThreshold,
		}),
		fallback: fallback.NewManager(fallback.Config{
			EnableGuidedCorrection: cfg.Extraction.EnableGuidedCorrection,
			EnableTemplateMatching: cfg.Extraction.EnableTemplateMatching,
		}, templates, logger),
	}
}

// DetectFileType maps a filename to its source format; "" means unsupported.
func DetectFileType(filename string) string {
	return constants.MapExtToFormat(filepath.Ext(filename))
}

// IsFileSupported reports whether the file extension is handled.
func (e *Engine) IsFileSupported(filename string) bool {
	return DetectFileType(filename) != ""
}

// SupportedFileTypes returns the recognized extensions grouped by format.
func (e *Engine) SupportedFileTypes() map[string][]string {
	return constants.SupportedFileTypes()
}

// UpdateConfidenceForEdit re-derives a layer's confidence after a human
// edit in the review step: edited layers are always high confidence and
// marked user_edited. The input is not mutated.
func (e *Engine) UpdateConfidenceForEdit(layer entity.ExtractedLayer) entity.ExtractedLayer {
	layer.Confidence = constants.ConfidenceHigh
	layer.UserEdited = true
	return layer
}

// Reset clears all per-call state. The engine never leaks state across files.
func (e *Engine) Reset() {
	e.attempts = nil
	e.errs = nil
	e.warnings = nil
}

// ExtractFromFile runs the full extraction pipeline for one file. It never
// returns a bare error for pipeline failures: every failure path produces
// an ExtractionResult carrying diagnostics and recovery guidance. The
// returned error is reserved for caller-driven cancellation.
func (e *Engine) ExtractFromFile(ctx context.Context, path string) (*entity.ExtractionResult, error) {
	start := time.Now()
	e.Reset()

	result := &entity.ExtractionResult{
		ID:       uuid.New(),
		Errors:   []string{},
		Warnings: []string{},
		Metadata: entity.Metadata{SourceFile: path},
	}

	format := DetectFileType(path)
	result.Metadata.Format = format
	if format == "" {
		msg := fmt.Sprintf("Unsupported file type: %s", filepath.Ext(path))
		e.errs = append(e.errs, msg)
		// No fallback for unsupported types; there is nothing to recover.
		return e.finalize(result, nil, start, false), nil
	}

	raw := e.runParseChain(ctx, path, format)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if raw == nil {
		return e.finalize(result, nil, start, true), nil
	}
	result.Metadata.DepthUnit = raw.DepthUnit
	result.Metadata.MappedColumns = raw.MappedColumns
	result.Metadata.TextVolume = raw.TextVolume
	e.warnings = append(e.warnings, raw.Warnings...)

	e.normalizeDepths(raw)
	if raw.Len() == 0 {
		e.errs = append(e.errs, "no depth values found after unit normalization")
		return e.finalize(result, nil, start, true), nil
	}

	validationPassed := true
	validationErrors := 0
	if e.cfg.AutoValidate {
		validationPassed, validationErrors = e.validateAndRepair(raw)
	}

	detected := e.detectLayers(raw)
	if len(detected) == 0 {
		e.errs = append(e.errs, "no data found: layer detection produced no layers")
		return e.finalize(result, nil, start, true), nil
	}

	if e.cfg.AutoValidate {
		bres := e.validator.ValidateLayerBoundaries(detected)
		e.errs = append(e.errs, bres.Errors...)
		e.warnings = append(e.warnings, bres.Warnings...)
		if !bres.Valid {
			validationPassed = false
			validationErrors += len(bres.Errors)
		}
	}

	result.Data = detected
	result.Confidence = e.scorer.ScoreExtraction(layers.ScoreInput{
		Layers:           detected,
		ValidationPassed: validationPassed,
		ValidationErrors: validationErrors,
		TotalErrors:      len(e.errs),
		SourceType:       raw.SourceType,
		MappedColumns:    raw.MappedColumns,
		TextVolume:       raw.TextVolume,
	})

	return e.finalize(result, raw, start, true), nil
}

// runParseChain iterates the ordered strategy list for the format,
// recording every attempt and its outcome. Cancellation is cooperative:
// it is checked between attempts, never mid-parse.
func (e *Engine) runParseChain(ctx context.Context, path, format string) *extract.RawExtraction {
	var strategies []extract.ParseStrategy
	switch format {
	case constants.EXCEL:
		strategies = e.excel.Strategies()
	case constants.PDF:
		strategies = e.pdf.Strategies()
	}

	for _, s := range strategies {
		if ctx.Err() != nil {
			return nil
		}
		att := entity.Attempt{
			ID:        uuid.New(),
			Strategy:  s.Name,
			Status:    constants.AttemptRunning,
			StartedAt: time.Now().UTC(),
		}
		raw, err := s.Attempt(ctx, path)
		att.FinishedAt = time.Now().UTC()
		if err != nil {
			att.Status = constants.AttemptFailed
			att.Error = err.Error()
			e.attempts = append(e.attempts, att)
			e.logger.Warn("parse attempt failed", "strategy", s.Name, "path", path, "error", err)
			continue
		}
		att.Status = constants.AttemptOK
		att.Points = raw.Len()
		e.attempts = append(e.attempts, att)
		raw.Method = s.Name
		e.logger.Info("parse attempt ok", "strategy", s.Name, "points", raw.Len())
		return raw
	}

	// All strategies exhausted: surface the per-attempt errors.
	for _, att := range e.attempts {
		if att.Error != "" {
			e.errs = append(e.errs, att.Error)
		}
	}
	return nil
}

// normalizeDepths converts every depth to canonical feet. A labeled
// point that fails normalization is interpolated from its neighbors
// when possible; anything still failing is dropped with its errors kept
// traceable by index.
func (e *Engine) normalizeDepths(raw *extract.RawExtraction) {
	raws := make([]any, raw.Len())
	for i, d := range raw.Depths {
		raws[i] = d
	}
	items := e.normalizer.NormalizeBatch(raws, raw.DepthUnit)
	if filled := interpolateMissing(items, raw.Materials); filled > 0 {
		e.warnings = append(e.warnings,
			fmt.Sprintf("interpolated %d missing depth value(s) from neighboring rows", filled))
	}

	kept := &extract.RawExtraction{
		DepthUnit:     "ft",
		SourceType:    raw.SourceType,
		Method:        raw.Method,
		MappedColumns: raw.MappedColumns,
		TextVolume:    raw.TextVolume,
		Warnings:      raw.Warnings,
	}
	for i, item := range items {
		e.warnings = append(e.warnings, item.Warnings...)
		if !item.Success {
			e.errs = append(e.errs, item.Errors...)
			continue
		}
		kept.Append(item.NormalizedDepth, raw.Materials[i], raw.Colors[i])
	}
	*raw = *kept
}

// validateAndRepair runs depth-sequence validation, attempting automated
// repair for specific recoverable classes before treating a failure as
// standing. Returns the final pass/fail plus the error count.
func (e *Engine) validateAndRepair(raw *extract.RawExtraction) (bool, int) {
	vres := e.validator.ValidateDepthSequence(raw.Depths)
	if repairs := repairSequence(raw, vres); len(repairs) > 0 {
		e.warnings = append(e.warnings, repairs...)
		vres = e.validator.ValidateDepthSequence(raw.Depths)
	}
	e.warnings = append(e.warnings, vres.Warnings...)
	if !vres.Valid {
		e.errs = append(e.errs, vres.Errors...)
	}

	if ic := e.validator.CheckDepthIntervalConsistency(raw.Depths); !ic.Consistent && len(raw.Depths) > 2 {
		e.warnings = append(e.warnings, fmt.Sprintf(
			"inconsistent depth intervals: only %.0f%% match the modal interval %.1f",
			ic.Conformance*100, ic.ModalInterval))
	}

	return vres.Valid, len(vres.Errors)
}

// detectLayers runs primary detection, then the alternative detectors
// before declaring failure.
func (e *Engine) detectLayers(raw *extract.RawExtraction) []entity.ExtractedLayer {
	if detected := e.detector.Detect(raw); len(detected) > 0 {
		return detected
	}
	e.warnings = append(e.warnings, "primary layer detection found no layers, trying color-only segmentation")
	if detected := e.detector.DetectColorOnly(raw); len(detected) > 0 {
		return detected
	}
	e.warnings = append(e.warnings, "color-only segmentation found no layers, trying thickness-based segmentation")
	return e.detector.DetectByThickness(raw)
}

// finalize classifies accumulated errors, decides success, and merges
// fallback guidance for everything short of success. allowFallback is
// false only for unsupported file types.
func (e *Engine) finalize(result *entity.ExtractionResult, raw *extract.RawExtraction, start time.Time, allowFallback bool) *entity.ExtractionResult {
	result.Errors = append(result.Errors, e.errs...)
	result.Warnings = append(result.Warnings, e.warnings...)
	result.Metadata.Attempts = e.attempts
	result.Metadata.DurationMS = time.Since(start).Milliseconds()
	if raw != nil {
		result.Metadata.Method = raw.Method
	}

	report := e.classifier.ClassifyErrors(result.Errors)

	result.Success = len(result.Data) > 0 &&
		report.AllowSave &&
		!report.ShouldAbort &&
		result.Confidence.Score >= e.cfg.MinConfidenceThreshold

	if result.Success {
		e.logger.Info("extraction ok",
			"file", result.Metadata.SourceFile,
			"layers", len(result.Data),
			"confidence", result.Confidence.Score,
		)
		return result
	}

	if allowFallback {
		strategy := e.fallback.SelectStrategy(result, report)
		result.Fallback = &strategy
		result.UserGuidance = strategy.UserGuidance
		result.Recovery = e.fallback.ExecuteStrategy(strategy, result, report)
	}

	e.logger.Warn("extraction needs recovery",
		"file", result.Metadata.SourceFile,
		"layers", len(result.Data),
		"confidence", result.Confidence.Score,
		"errors", len(result.Errors),
		"abort", report.ShouldAbort,
	)
	return result
}
