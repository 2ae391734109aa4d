package classify

import (
	"errors"
	"log/slog"
	"strings"
)

// Class is the severity taxonomy for extraction errors.
type Class string

const (
	ClassFatal       Class = "fatal"
	ClassRecoverable Class = "recoverable"
	ClassWarning     Class = "warning"
)

// Classification is the policy decision for one error message.
type Classification struct {
	Type        Class  `json:"type"`
	ShouldAbort bool   `json:"should_abort"`
	AllowSave   bool   `json:"allow_save"`
	ForceReview bool   `json:"force_review"`
	Message     string `json:"message"`
}

// Report aggregates classifications across all errors of one extraction.
// AllowSave is the AND over all items; ShouldAbort is the OR.
type Report struct {
	Classifications []Classification `json:"classifications"`
	AllowSave       bool             `json:"allow_save"`
	ShouldAbort     bool             `json:"should_abort"`
}

// rule maps message substrings to a classification. Rules are evaluated in
// order; the first match wins, which keeps classification deterministic.
type rule struct {
	keywords  []string
	class     Class
	allowSave bool
}

var defaultRules = []rule{
	// Fatal: document unreadable, empty, or fundamentally malformed.
	{keywords: []string{"corrupt"}, class: ClassFatal},
	{keywords: []string{"unreadable"}, class: ClassFatal},
	{keywords: []string{"invalid format"}, class: ClassFatal},
	{keywords: []string{"unsupported file type"}, class: ClassFatal},
	{keywords: []string{"no data found"}, class: ClassFatal},
	{keywords: []string{"no readable text"}, class: ClassFatal},
	{keywords: []string{"no depth values found"}, class: ClassFatal},
	{keywords: []string{"no material"}, class: ClassFatal},
	{keywords: []string{"critical", "parsing"}, class: ClassFatal},
	{keywords: []string{"cannot open"}, class: ClassFatal},

	// Recoverable: depth-sequence or boundary inconsistencies. AllowSave
	// varies with how much the finding undermines the layer geometry.
	{keywords: []string{"inverted"}, class: ClassRecoverable, allowSave: false},
	{keywords: []string{"overlap"}, class: ClassRecoverable, allowSave: false},
	{keywords: []string{"monotonic"}, class: ClassRecoverable, allowSave: false},
	{keywords: []string{"direction"}, class: ClassRecoverable, allowSave: true},
	{keywords: []string{"duplicate"}, class: ClassRecoverable, allowSave: true},
	{keywords: []string{"sequence"}, class: ClassRecoverable, allowSave: true},
	{keywords: []string{"interval"}, class: ClassRecoverable, allowSave: true},
	{keywords: []string{"validation"}, class: ClassRecoverable, allowSave: true},
	{keywords: []string{"boundary"}, class: ClassRecoverable, allowSave: true},
}

// Classifier maps raw error strings and tagged errors to the severity
// taxonomy. The text rule table is the fallback for errors arriving from
// less-controlled boundaries (third-party format libraries); errors
// produced inside this module carry a Tag and bypass text matching.
type Classifier struct {
	rules  []rule
	logger *slog.Logger
}

func New(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{rules: defaultRules, logger: logger}
}

// Classify resolves an error to its classification, preferring the tag
// carried by errors produced at the source.
func (c *Classifier) Classify(err error) Classification {
	var te *TaggedError
	if errors.As(err, &te) {
		return classificationForTag(te.Tag, err.Error())
	}
	return c.ClassifyError(err.Error())
}

// ClassifyError classifies a raw error message. Same message always yields
// the same classification.
func (c *Classifier) ClassifyError(message string) Classification {
	lower := strings.ToLower(message)
	for _, r := range c.rules {
		if matchAll(lower, r.keywords) {
			return buildClassification(r.class, r.allowSave, message)
		}
	}
	// Everything else is a degraded-confidence signal, never a blocker.
	return buildClassification(ClassWarning, true, message)
}

// ClassifyErrors aggregates classifications over a list of messages.
func (c *Classifier) ClassifyErrors(messages []string) Report {
	report := Report{AllowSave: true}
	for _, msg := range messages {
		cl := c.ClassifyError(msg)
		report.Classifications = append(report.Classifications, cl)
		if cl.ShouldAbort {
			report.ShouldAbort = true
		}
		if !cl.AllowSave {
			report.AllowSave = false
		}
	}
	return report
}

func matchAll(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

func buildClassification(class Class, allowSave bool, message string) Classification {
	switch class {
	case ClassFatal:
		return Classification{Type: ClassFatal, ShouldAbort: true, AllowSave: false, ForceReview: false, Message: message}
	case ClassRecoverable:
		return Classification{Type: ClassRecoverable, ShouldAbort: false, AllowSave: allowSave, ForceReview: true, Message: message}
	default:
		return Classification{Type: ClassWarning, ShouldAbort: false, AllowSave: true, ForceReview: false, Message: message}
	}
}
