package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/strataspect/borelog/constants"
)

// ConfidenceReport is the scored trust for a whole extraction.
type ConfidenceReport struct {
	Score float64              `json:"score"`
	Level constants.Confidence `json:"level"`
}

// Attempt records one parse attempt and its outcome. The attempt log is
// kept for diagnostics and is never discarded within a call.
type Attempt struct {
	ID         uuid.UUID               `json:"id"`
	Strategy   string                  `json:"strategy"`
	Status     constants.AttemptStatus `json:"status"`
	Error      string                  `json:"error,omitempty"`
	Points     int                     `json:"points"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

// StrategyType identifies a fallback recovery plan.
type StrategyType string

const (
	StrategyPartialExtraction StrategyType = "PARTIAL_EXTRACTION"
	StrategyGuidedCorrection  StrategyType = "GUIDED_CORRECTION"
	StrategyTemplateBased     StrategyType = "TEMPLATE_BASED"
	StrategyManualEntry       StrategyType = "MANUAL_ENTRY"
	StrategyNone              StrategyType = "NONE"
)

// FallbackStrategy is the recovery plan selected when automatic
// extraction is incomplete or uncertain.
type FallbackStrategy struct {
	Type            StrategyType `json:"type"`
	CanRecover      bool         `json:"can_recover"`
	EstimatedEffort string       `json:"estimated_effort"` // "low" | "medium" | "high" | "none"
	UserGuidance    string       `json:"user_guidance"`
}

// GuidedIssue is one flagged problem surfaced to the review UI,
// prioritized by severity then by number of affected items.
type GuidedIssue struct {
	Severity      string `json:"severity"` // "error" | "warning"
	Message       string `json:"message"`
	AffectedCount int    `json:"affected_count"`
}

// RecoverySession describes the next steps the external review UI should
// walk the user through. It never proceeds to save data on its own.
type RecoverySession struct {
	ID            uuid.UUID        `json:"id"`
	Strategy      FallbackStrategy `json:"strategy"`
	Steps         []string         `json:"steps"`
	PartialLayers []ExtractedLayer `json:"partial_layers,omitempty"`
	Issues        []GuidedIssue    `json:"issues,omitempty"`
	TemplateName  string           `json:"template_name,omitempty"`
	ReferenceFile string           `json:"reference_file,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Metadata carries per-extraction diagnostics.
type Metadata struct {
	SourceFile    string    `json:"source_file"`
	Format        string    `json:"format"`
	Method        string    `json:"method,omitempty"`
	DepthUnit     string    `json:"depth_unit,omitempty"`
	MappedColumns int       `json:"mapped_columns,omitempty"`
	TextVolume    int       `json:"text_volume,omitempty"`
	Attempts      []Attempt `json:"attempts"`
	DurationMS    int64     `json:"duration_ms"`
}

// ExtractionResult is the terminal artifact of one ExtractFromFile call.
// It is created fresh per call and immutable once returned; a user edit in
// the review step produces a new result, never a mutation of history.
type ExtractionResult struct {
	ID           uuid.UUID         `json:"id"`
	Success      bool              `json:"success"`
	Data         []ExtractedLayer  `json:"data"`
	Confidence   ConfidenceReport  `json:"confidence"`
	Errors       []string          `json:"errors"`
	Warnings     []string          `json:"warnings"`
	Metadata     Metadata          `json:"metadata"`
	Fallback     *FallbackStrategy `json:"fallback_strategy,omitempty"`
	Recovery     *RecoverySession  `json:"recovery_session,omitempty"`
	UserGuidance string            `json:"user_guidance,omitempty"`
}
