package excel

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/strataspect/borelog/internal/classify"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "chart.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse_HeaderMappedWorkbook(t *testing.T) {
	p := New(nil, nil)
	path := writeWorkbook(t, [][]any{
		{"Depth (ft)", "Material", "Color"},
		{0, "Clay", "brown"},
		{5, "Clay", "brown"},
		{10, "Sand", "yellow"},
	})

	raw, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if raw.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", raw.Len())
	}
	if raw.MappedColumns != 3 {
		t.Errorf("expected 3 mapped columns, got %d", raw.MappedColumns)
	}
	if raw.DepthUnit != "ft" {
		t.Errorf("expected unit from header, got %q", raw.DepthUnit)
	}
	if raw.Materials[0] != "Clay" || raw.Materials[2] != "Sand" {
		t.Errorf("unexpected materials %v", raw.Materials)
	}
	if raw.Colors[2] != "yellow" {
		t.Errorf("expected color from column, got %q", raw.Colors[2])
	}
}

func TestParse_HeaderUnitMeters(t *testing.T) {
	p := New(nil, nil)
	path := writeWorkbook(t, [][]any{
		{"Depth (m)", "Soil Description"},
		{0, "clay"},
		{1.5, "sand"},
	})

	raw, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if raw.DepthUnit != "m" {
		t.Errorf("expected meters from header hint, got %q", raw.DepthUnit)
	}
	if raw.Materials[0] != "Clay" {
		t.Errorf("expected canonicalized material, got %q", raw.Materials[0])
	}
}

func TestParse_DepthTokensWithUnits(t *testing.T) {
	p := New(nil, nil)
	path := writeWorkbook(t, [][]any{
		{"Depth", "Material"},
		{"0 ft", "clay"},
		{"5 ft", "silty clay"},
		{"depth: 10", "sand"},
	})

	raw, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if raw.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", raw.Len())
	}
	if raw.DepthUnit != "ft" {
		t.Errorf("expected cell-level unit, got %q", raw.DepthUnit)
	}
	if raw.Materials[1] != "Silty Clay" {
		t.Errorf("expected compound label in title case, got %q", raw.Materials[1])
	}
}

func TestParse_KeepsLabeledRowWithUnreadableDepth(t *testing.T) {
	p := New(nil, nil)
	path := writeWorkbook(t, [][]any{
		{"Depth (ft)", "Material"},
		{0, "clay"},
		{"smudge", "clay"},
		{10, "sand"},
	})

	raw, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if raw.Len() != 3 {
		t.Fatalf("expected the garbled row kept, got %d points", raw.Len())
	}
	if !math.IsNaN(raw.Depths[1]) {
		t.Errorf("expected NaN placeholder depth, got %v", raw.Depths[1])
	}
	if raw.Materials[1] != "Clay" {
		t.Errorf("expected material preserved, got %q", raw.Materials[1])
	}
}

func TestParse_CSV(t *testing.T) {
	p := New(nil, nil)
	csv := "Depth,Material\n0,clay\n5,sand\n10,gravel\n"
	path := filepath.Join(t.TempDir(), "chart.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	raw, err := p.Parse(context.Background(), path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if raw.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", raw.Len())
	}
	if raw.Materials[2] != "Gravel" {
		t.Errorf("unexpected material %q", raw.Materials[2])
	}
}

func TestParse_NoDepthHeaderIsInvalidFormat(t *testing.T) {
	p := New(nil, nil)
	path := writeWorkbook(t, [][]any{
		{"Name", "Notes"},
		{"hole 1", "looks fine"},
	})

	_, err := p.Parse(context.Background(), path)
	if err == nil {
		t.Fatal("expected an error")
	}
	var te *classify.TaggedError
	if !errors.As(err, &te) || te.Tag != classify.TagInvalidFormat {
		t.Errorf("expected INVALID_FORMAT tag, got %v", err)
	}
}

func TestParse_RelaxedStrategyRecoversHeaderless(t *testing.T) {
	p := New(nil, nil)
	path := writeWorkbook(t, [][]any{
		{"0 ft", "clay"},
		{"5 ft", "sand"},
	})

	strategies := p.Strategies()
	relaxed := strategies[len(strategies)-1]
	raw, err := relaxed.Attempt(context.Background(), path)
	if err != nil {
		t.Fatalf("relaxed attempt failed: %v", err)
	}
	if raw.Len() != 2 {
		t.Fatalf("expected 2 points, got %d", raw.Len())
	}
	if raw.Materials[0] != "Clay" {
		t.Errorf("unexpected material %q", raw.Materials[0])
	}
}

func TestParse_GarbageFileIsUnreadable(t *testing.T) {
	p := New(nil, nil)
	path := filepath.Join(t.TempDir(), "chart.xlsx")
	if err := os.WriteFile(path, []byte("not a workbook"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := p.Parse(context.Background(), path)
	if err == nil {
		t.Fatal("expected an error")
	}
	var te *classify.TaggedError
	if !errors.As(err, &te) || te.Tag != classify.TagUnreadable {
		t.Errorf("expected UNREADABLE tag, got %v", err)
	}
}

func TestParse_DepthsWithoutMaterialsFailReadability(t *testing.T) {
	p := New(nil, nil)
	path := writeWorkbook(t, [][]any{
		{"Depth"},
		{0},
		{5},
	})

	_, err := p.Parse(context.Background(), path)
	if err == nil {
		t.Fatal("expected an error")
	}
	var te *classify.TaggedError
	if !errors.As(err, &te) || te.Tag != classify.TagNoMaterials {
		t.Errorf("expected NO_MATERIALS tag, got %v", err)
	}
}

func TestParse_CancelledContext(t *testing.T) {
	p := New(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Parse(ctx, "irrelevant.xlsx")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
