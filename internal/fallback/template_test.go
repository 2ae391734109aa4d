package fallback

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/strataspect/borelog/constants"
)

func TestTemplateApply_ProportionalScaling(t *testing.T) {
	tpl := Template{
		Name: "halves",
		Layers: []TemplateLayer{
			{Material: "Clay", ThicknessFraction: 0.5},
			{Material: "Sand", ThicknessFraction: 0.5},
		},
	}
	got := tpl.Apply(10, 30)
	if len(got) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(got))
	}
	if got[0].StartDepth != 10 || got[0].EndDepth != 20 {
		t.Errorf("layer 0: got [%v, %v]", got[0].StartDepth, got[0].EndDepth)
	}
	if got[1].StartDepth != 20 || got[1].EndDepth != 30 {
		t.Errorf("layer 1: got [%v, %v]", got[1].StartDepth, got[1].EndDepth)
	}
	for i, l := range got {
		if l.Confidence != constants.ConfidenceLow || l.Source != constants.SourceFallback {
			t.Errorf("layer %d: prefilled layers must be low-confidence fallback, got %+v", i, l)
		}
	}
}

func TestTemplateApply_LastLayerClosesSpanExactly(t *testing.T) {
	tpl := Template{
		Name: "thirds",
		Layers: []TemplateLayer{
			{Material: "Topsoil", ThicknessFraction: 1.0 / 3},
			{Material: "Clay", ThicknessFraction: 1.0 / 3},
			{Material: "Sand", ThicknessFraction: 1.0 / 3},
		},
	}
	got := tpl.Apply(0, 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 layers, got %d", len(got))
	}
	if got[2].EndDepth != 10 {
		t.Errorf("last layer must close the span: got %v", got[2].EndDepth)
	}
	for i := 1; i < len(got); i++ {
		if math.Abs(got[i].StartDepth-got[i-1].EndDepth) > 1e-9 {
			t.Errorf("layer %d does not start where %d ends", i, i-1)
		}
	}
}

func TestTemplateApply_DegenerateSpan(t *testing.T) {
	tpl := Template{Name: "x", Layers: []TemplateLayer{{Material: "Clay", ThicknessFraction: 1}}}
	if got := tpl.Apply(10, 10); got != nil {
		t.Errorf("expected nil for zero span, got %d layers", len(got))
	}
	if got := tpl.Apply(10, 5); got != nil {
		t.Errorf("expected nil for negative span, got %d layers", len(got))
	}
}

func TestBuiltinTemplates(t *testing.T) {
	lib := BuiltinTemplates()
	if lib.Len() < 2 {
		t.Fatalf("expected at least 2 builtin templates, got %d", lib.Len())
	}
}

func TestTemplateLibrary_Match(t *testing.T) {
	lib := BuiltinTemplates()

	t.Run("picks the tightest fit at or above the count", func(t *testing.T) {
		tpl := lib.Match(4)
		if tpl == nil {
			t.Fatal("expected a template")
		}
		if len(tpl.Layers) < 4 {
			t.Errorf("expected at least 4 layers, got %d", len(tpl.Layers))
		}
	})

	t.Run("over-large counts fall back to the first template", func(t *testing.T) {
		tpl := lib.Match(50)
		if tpl == nil {
			t.Fatal("expected a template")
		}
	})
}

func TestLoadTemplateDir(t *testing.T) {
	dir := t.TempDir()

	good := `{
		"name": "coastal",
		"layers": [
			{"material": "Sand", "thickness_fraction": 0.6},
			{"material": "Clay", "thickness_fraction": 0.4}
		]
	}`
	if err := os.WriteFile(filepath.Join(dir, "coastal.json"), []byte(good), 0o644); err != nil {
		t.Fatal(err)
	}

	lib, err := LoadTemplateDir(dir)
	if err != nil {
		t.Fatalf("LoadTemplateDir failed: %v", err)
	}
	builtin := BuiltinTemplates().Len()
	if lib.Len() != builtin+1 {
		t.Errorf("expected %d templates, got %d", builtin+1, lib.Len())
	}
}

func TestLoadTemplateDir_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing layers", `{"name": "empty"}`},
		{"zero fraction", `{"name": "z", "layers": [{"material": "Clay", "thickness_fraction": 0}]}`},
		{"fractions not summing to one", `{"name": "s", "layers": [{"material": "Clay", "thickness_fraction": 0.2}]}`},
		{"not json", `{{{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(tt.doc), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadTemplateDir(dir); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
