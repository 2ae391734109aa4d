package layers

import (
	"testing"

	"github.com/strataspect/borelog/constants"
	"github.com/strataspect/borelog/internal/entity"
	"github.com/strataspect/borelog/internal/extract"
)

func TestLayerConfidence(t *testing.T) {
	s := NewScorer(ScorerConfig{})

	tests := []struct {
		kind extract.SignalKind
		want constants.Confidence
	}{
		{extract.SignalBoth, constants.ConfidenceHigh},
		{extract.SignalTextOnly, constants.ConfidenceHigh},
		{extract.SignalColorOnly, constants.ConfidenceMedium},
		{extract.SignalNeither, constants.ConfidenceLow},
	}
	for _, tt := range tests {
		if got := s.LayerConfidence(tt.kind); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.kind, tt.want, got)
		}
	}
}

func completeLayers(n int, color string) []entity.ExtractedLayer {
	ls := make([]entity.ExtractedLayer, 0, n)
	for i := 0; i < n; i++ {
		ls = append(ls, entity.ExtractedLayer{
			Material:      "Clay",
			StartDepth:    float64(i * 5),
			EndDepth:      float64((i + 1) * 5),
			Confidence:    constants.ConfidenceHigh,
			Source:        constants.SourceExcelImport,
			OriginalColor: color,
		})
	}
	return ls
}

func TestScoreExtraction_CleanRun(t *testing.T) {
	s := NewScorer(ScorerConfig{MinThreshold: 0.5, HighThreshold: 0.8})

	report := s.ScoreExtraction(ScoreInput{
		Layers:           completeLayers(3, "brown"),
		ValidationPassed: true,
		SourceType:       constants.EXCEL,
		MappedColumns:    3,
	})
	// 0.3 base + 0.2 complete + 0.2 both-signals + 0.2 validation + 0.075 structure
	if report.Score < 0.8 {
		t.Errorf("expected high score, got %.3f", report.Score)
	}
	if report.Level != constants.ConfidenceHigh {
		t.Errorf("expected high level, got %s", report.Level)
	}
}

func TestScoreExtraction_EmptyIsZero(t *testing.T) {
	s := NewScorer(ScorerConfig{})

	report := s.ScoreExtraction(ScoreInput{ValidationPassed: false, ValidationErrors: 5, TotalErrors: 10})
	if report.Score != 0 {
		t.Errorf("expected clamp at 0, got %.3f", report.Score)
	}
	if report.Level != constants.ConfidenceLow {
		t.Errorf("expected low level, got %s", report.Level)
	}
}

func TestScoreExtraction_Monotonicity(t *testing.T) {
	s := NewScorer(ScorerConfig{})

	base := ScoreInput{
		Layers:           completeLayers(3, "brown"),
		ValidationPassed: true,
		SourceType:       constants.EXCEL,
		MappedColumns:    3,
	}
	clean := s.ScoreExtraction(base).Score

	t.Run("validation failure lowers the score", func(t *testing.T) {
		in := base
		in.ValidationPassed = false
		in.ValidationErrors = 3
		if got := s.ScoreExtraction(in).Score; got >= clean {
			t.Errorf("expected < %.3f, got %.3f", clean, got)
		}
	})

	t.Run("errors lower the score", func(t *testing.T) {
		in := base
		in.TotalErrors = 5
		if got := s.ScoreExtraction(in).Score; got >= clean {
			t.Errorf("expected < %.3f, got %.3f", clean, got)
		}
	})

	t.Run("missing color signals lower the score", func(t *testing.T) {
		in := base
		in.Layers = completeLayers(3, "")
		if got := s.ScoreExtraction(in).Score; got >= clean {
			t.Errorf("expected < %.3f, got %.3f", clean, got)
		}
	})
}

func TestScoreExtraction_PDFStructureSignal(t *testing.T) {
	s := NewScorer(ScorerConfig{})

	small := s.ScoreExtraction(ScoreInput{
		Layers:           completeLayers(2, ""),
		ValidationPassed: true,
		SourceType:       constants.PDF,
		TextVolume:       100,
	}).Score
	large := s.ScoreExtraction(ScoreInput{
		Layers:           completeLayers(2, ""),
		ValidationPassed: true,
		SourceType:       constants.PDF,
		TextVolume:       10000,
	}).Score
	if large <= small {
		t.Errorf("expected more text volume to score higher: %.3f vs %.3f", small, large)
	}
}

func TestLevel_Buckets(t *testing.T) {
	s := NewScorer(ScorerConfig{MinThreshold: 0.5, HighThreshold: 0.8})

	tests := []struct {
		score float64
		want  constants.Confidence
	}{
		{0.0, constants.ConfidenceLow},
		{0.49, constants.ConfidenceLow},
		{0.5, constants.ConfidenceMedium},
		{0.79, constants.ConfidenceMedium},
		{0.8, constants.ConfidenceHigh},
		{1.0, constants.ConfidenceHigh},
	}
	for _, tt := range tests {
		if got := s.Level(tt.score); got != tt.want {
			t.Errorf("score %.2f: expected %s, got %s", tt.score, tt.want, got)
		}
	}
}
