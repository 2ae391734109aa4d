package classify

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError_Severities(t *testing.T) {
	c := New(nil)

	tests := []struct {
		message   string
		class     Class
		abort     bool
		allowSave bool
	}{
		{"File is corrupted", ClassFatal, true, false},
		{"document contains no readable text content", ClassFatal, true, false},
		{"No depth values found in document", ClassFatal, true, false},
		{"Unsupported file type: .docx", ClassFatal, true, false},
		{"invalid format: no depth column header found", ClassFatal, true, false},
		{"layer 0 (Clay): inverted boundaries 10.00 > 5.00", ClassRecoverable, false, false},
		{"layer 1 (Sand) overlaps layer 0 (Clay) by 2.00 ft", ClassRecoverable, false, false},
		{"item 3: duplicate depth 5.00 (first seen at item 2)", ClassRecoverable, false, true},
		{"inconsistent depth direction: 3 increasing vs 2 decreasing steps", ClassRecoverable, false, true},
		{"something mildly unexpected happened", ClassWarning, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			cl := c.ClassifyError(tt.message)
			if cl.Type != tt.class {
				t.Errorf("class: expected %s, got %s", tt.class, cl.Type)
			}
			if cl.ShouldAbort != tt.abort {
				t.Errorf("abort: expected %v, got %v", tt.abort, cl.ShouldAbort)
			}
			if cl.AllowSave != tt.allowSave {
				t.Errorf("allowSave: expected %v, got %v", tt.allowSave, cl.AllowSave)
			}
		})
	}
}

func TestClassifyError_Deterministic(t *testing.T) {
	c := New(nil)

	// "duplicate ... interval" could match two rules; first match must win,
	// and repeated calls must agree.
	msg := "item 2: duplicate depth opened an interval of 0.00"
	first := c.ClassifyError(msg)
	second := c.ClassifyError(msg)
	if first != second {
		t.Errorf("same message classified differently: %+v vs %+v", first, second)
	}
	if first.Type != ClassRecoverable || !first.AllowSave {
		t.Errorf("expected recoverable allow-save via duplicate rule, got %+v", first)
	}
}

func TestClassify_PrefersTag(t *testing.T) {
	c := New(nil)

	// The message alone would read as a warning; the tag must force fatal.
	err := Tagged(TagCorrupted, "workbook book1 contains no sheets")
	cl := c.Classify(err)
	if cl.Type != ClassFatal || !cl.ShouldAbort {
		t.Errorf("expected fatal via tag, got %+v", cl)
	}

	// Wrapped tagged errors still classify by tag.
	wrapped := fmt.Errorf("parse: %w", TaggedWrap(TagSequence, errors.New("x"), "depths out of order"))
	cl = c.Classify(wrapped)
	if cl.Type != ClassRecoverable || !cl.AllowSave {
		t.Errorf("expected recoverable via wrapped tag, got %+v", cl)
	}

	// Untagged errors fall back to the text rules.
	cl = c.Classify(errors.New("cannot open workbook"))
	if cl.Type != ClassFatal {
		t.Errorf("expected fatal via text rule, got %+v", cl)
	}
}

func TestClassifyErrors_Aggregation(t *testing.T) {
	c := New(nil)

	t.Run("no errors allows save", func(t *testing.T) {
		report := c.ClassifyErrors(nil)
		if !report.AllowSave || report.ShouldAbort {
			t.Errorf("unexpected report %+v", report)
		}
	})

	t.Run("one fatal aborts everything", func(t *testing.T) {
		report := c.ClassifyErrors([]string{
			"item 3: duplicate depth 5.00",
			"file is corrupted",
		})
		if !report.ShouldAbort {
			t.Error("expected abort")
		}
		if report.AllowSave {
			t.Error("expected save blocked")
		}
		if len(report.Classifications) != 2 {
			t.Errorf("expected 2 classifications, got %d", len(report.Classifications))
		}
	})

	t.Run("recoverables alone never abort", func(t *testing.T) {
		report := c.ClassifyErrors([]string{
			"item 3: duplicate depth 5.00",
			"gap of 2.00 ft between layer 0 (Clay) and layer 1 (Sand)",
		})
		if report.ShouldAbort {
			t.Error("expected no abort")
		}
		if !report.AllowSave {
			t.Error("expected save allowed")
		}
	})

	t.Run("save-blocking recoverable blocks save without aborting", func(t *testing.T) {
		report := c.ClassifyErrors([]string{
			"layer 0 (Clay): inverted boundaries 10.00 > 5.00",
		})
		if report.ShouldAbort {
			t.Error("expected no abort")
		}
		if report.AllowSave {
			t.Error("expected save blocked")
		}
	})
}
