package fallback

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/strataspect/borelog/internal/classify"
	"github.com/strataspect/borelog/internal/entity"
)

// Recovery thresholds over the extraction confidence score.
const (
	// PartialThreshold is the minimum score at which a partial layer set
	// is worth presenting for completion.
	PartialThreshold = 0.5
	// MinimumThreshold is the floor below which guided correction stops
	// being useful and manual entry takes over.
	MinimumThreshold = 0.3
)

// Config holds behavior flags for strategy selection.
type Config struct {
	EnableGuidedCorrection bool
	EnableTemplateMatching bool
}

// Manager selects and executes a recovery strategy for one failed or
// low-confidence extraction. Every path ends in a human-facing review
// artifact; nothing here ever saves data on its own.
type Manager struct {
	cfg       Config
	templates *TemplateLibrary
	logger    *slog.Logger
}

func NewManager(cfg Config, templates *TemplateLibrary, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if templates == nil {
		templates = BuiltinTemplates()
	}
	return &Manager{cfg: cfg, templates: templates, logger: logger}
}

// SelectStrategy walks the tiered recovery ladder: abort short-circuits,
// then partial extraction, guided correction, template matching, and
// manual entry as the universal last resort.
func (m *Manager) SelectStrategy(res *entity.ExtractionResult, report classify.Report) entity.FallbackStrategy {
	if report.ShouldAbort {
		return entity.FallbackStrategy{
			Type:            entity.StrategyNone,
			CanRecover:      false,
			EstimatedEffort: "none",
			UserGuidance:    "The document could not be read automatically. Enter the strata layers manually, using the original file as a reference.",
		}
	}

	score := res.Confidence.Score

	if len(res.Data) > 0 && score >= PartialThreshold {
		return entity.FallbackStrategy{
			Type:            entity.StrategyPartialExtraction,
			CanRecover:      true,
			EstimatedEffort: "low",
			UserGuidance:    fmt.Sprintf("%d layers were extracted with partial confidence. Review them and complete any missing materials or depths.", len(res.Data)),
		}
	}

	if m.cfg.EnableGuidedCorrection && score >= MinimumThreshold && score < PartialThreshold {
		issues := BuildIssues(report)
		guidance := "Extraction found issues that need correction."
		if len(issues) > 0 {
			guidance = fmt.Sprintf("Extraction found %d issue(s); start with: %s", len(issues), issues[0].Message)
		}
		return entity.FallbackStrategy{
			Type:            entity.StrategyGuidedCorrection,
			CanRecover:      true,
			EstimatedEffort: "medium",
			UserGuidance:    guidance,
		}
	}

	if m.cfg.EnableTemplateMatching && m.templates.Len() > 0 && hasStructure(res) {
		return entity.FallbackStrategy{
			Type:            entity.StrategyTemplateBased,
			CanRecover:      true,
			EstimatedEffort: "medium",
			UserGuidance:    "The document layout is regular enough to start from a strata template. Adjust the prefilled layers to match the chart.",
		}
	}

	return entity.FallbackStrategy{
		Type:            entity.StrategyManualEntry,
		CanRecover:      true,
		EstimatedEffort: "high",
		UserGuidance:    "Automatic extraction was not possible. Enter the strata layers manually with the original file open side by side.",
	}
}

// ExecuteStrategy materializes the selected strategy into a recovery
// session describing next steps for the external review UI.
func (m *Manager) ExecuteStrategy(strategy entity.FallbackStrategy, res *entity.ExtractionResult, report classify.Report) *entity.RecoverySession {
	session := &entity.RecoverySession{
		ID:            uuid.New(),
		Strategy:      strategy,
		ReferenceFile: res.Metadata.SourceFile,
		CreatedAt:     time.Now().UTC(),
	}

	switch strategy.Type {
	case entity.StrategyPartialExtraction:
		session.PartialLayers = res.Data
		session.Steps = []string{
			"Review the extracted layers against the original chart",
			"Fill in materials for unmatched layers",
			"Confirm the bottom depth of the final layer",
		}
	case entity.StrategyGuidedCorrection:
		session.Issues = BuildIssues(report)
		session.PartialLayers = res.Data
		session.Steps = []string{
			"Resolve the flagged issues in priority order",
			"Re-validate the depth sequence",
			"Confirm layer boundaries",
		}
	case entity.StrategyTemplateBased:
		if t := m.templates.Match(len(res.Data)); t != nil {
			session.TemplateName = t.Name
			start, end := spanOf(res)
			session.PartialLayers = t.Apply(start, end)
		}
		session.Steps = []string{
			"Compare the template layers to the original chart",
			"Adjust materials and boundaries to match",
		}
	case entity.StrategyManualEntry:
		session.Steps = []string{
			"Open the original file as a side-by-side reference",
			"Enter each layer from the top of the bore downward",
			"Validate the finished sequence",
		}
	default:
		session.Steps = []string{"Extraction aborted; no automatic recovery available"}
	}

	m.logger.Info("recovery session created",
		"session_id", session.ID,
		"strategy", strategy.Type,
		"steps", len(session.Steps),
	)
	return session
}

// BuildIssues converts a classification report into review issues,
// prioritized by severity then by number of affected items.
func BuildIssues(report classify.Report) []entity.GuidedIssue {
	type bucket struct {
		severity string
		count    int
	}
	buckets := make(map[string]*bucket)
	var order []string
	for _, cl := range report.Classifications {
		severity := "warning"
		if cl.Type != classify.ClassWarning {
			severity = "error"
		}
		if b, ok := buckets[cl.Message]; ok {
			b.count++
			continue
		}
		buckets[cl.Message] = &bucket{severity: severity, count: 1}
		order = append(order, cl.Message)
	}

	issues := make([]entity.GuidedIssue, 0, len(order))
	for _, msg := range order {
		b := buckets[msg]
		issues = append(issues, entity.GuidedIssue{Severity: b.severity, Message: msg, AffectedCount: b.count})
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Severity != issues[j].Severity {
			return issues[i].Severity == "error"
		}
		return issues[i].AffectedCount > issues[j].AffectedCount
	})
	return issues
}

// hasStructure reports whether the source showed enough structural
// regularity (mapped headers, recognized format) for template matching.
func hasStructure(res *entity.ExtractionResult) bool {
	return res.Metadata.MappedColumns >= 2 || (res.Metadata.Format != "" && res.Metadata.TextVolume > 0)
}

func spanOf(res *entity.ExtractionResult) (float64, float64) {
	if len(res.Data) == 0 {
		return 0, 30
	}
	start := res.Data[0].StartDepth
	end := res.Data[len(res.Data)-1].EndDepth
	if end <= start {
		end = start + 30
	}
	return start, end
}
