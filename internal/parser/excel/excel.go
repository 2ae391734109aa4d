package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/strataspect/borelog/constants"
	"github.com/strataspect/borelog/internal/classify"
	"github.com/strataspect/borelog/internal/extract"
)

// headerScanRows is how deep into a sheet the header detector looks.
const headerScanRows = 10

// depthTokenRe matches depth labels: a number with an optional range and
// unit suffix, optionally prefixed with "depth:".
var depthTokenRe = regexp.MustCompile(`(?i)^\s*(?:depth\s*:?\s*)?(-?\d+(?:\.\d+)?)\s*(?:-\s*(\d+(?:\.\d+)?))?\s*(ft|feet|foot|'|m|meters|meter|metres|metre)?\.?\s*$`)

// headerUnitRe captures a unit hint embedded in a header cell, e.g. "Depth (m)".
var headerUnitRe = regexp.MustCompile(`(?i)\(\s*(ft|feet|m|meters?|metres?)\s*\)`)

// Parser reads borehole strata charts from tabular workbooks (.xlsx, .xls)
// and delimited text (.csv). The material vocabulary is injected at
// construction; it is never package state.
type Parser struct {
	logger    *slog.Logger
	materials []string
}

func New(materials []string, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if len(materials) == 0 {
		materials = constants.DefaultMaterialKeywords()
	}
	return &Parser{logger: logger, materials: materials}
}

// Parse runs the primary strategy: header-mapped extraction from the
// first sheet that yields signals.
func (p *Parser) Parse(ctx context.Context, path string) (*extract.RawExtraction, error) {
	return p.parseFile(ctx, path, options{})
}

// Strategies returns the ordered retry chain for tabular sources.
func (p *Parser) Strategies() []extract.ParseStrategy {
	return []extract.ParseStrategy{
		{Name: "excel-primary", Attempt: func(ctx context.Context, path string) (*extract.RawExtraction, error) {
			return p.parseFile(ctx, path, options{})
		}},
		{Name: "excel-alternate-sheet", Attempt: func(ctx context.Context, path string) (*extract.RawExtraction, error) {
			return p.parseFile(ctx, path, options{alternateSheets: true})
		}},
		{Name: "excel-relaxed", Attempt: func(ctx context.Context, path string) (*extract.RawExtraction, error) {
			return p.parseFile(ctx, path, options{alternateSheets: true, relaxed: true})
		}},
	}
}

type options struct {
	// alternateSheets scans every sheet instead of only the first.
	alternateSheets bool
	// relaxed drops the header requirement and pattern-scans each row.
	relaxed bool
}

func (p *Parser) parseFile(ctx context.Context, path string, opts options) (*extract.RawExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if constants.NormalizeExt(filepath.Ext(path)) == "csv" {
		return p.parseCSV(path, opts)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, classify.TaggedWrap(classify.TagUnreadable, err, "cannot open workbook %s", filepath.Base(path))
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			p.logger.Warn("close workbook", "path", path, "error", cerr)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, classify.Tagged(classify.TagCorrupted, "workbook %s contains no sheets", filepath.Base(path))
	}
	if !opts.alternateSheets {
		sheets = sheets[:1]
	}

	var lastErr error
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			lastErr = classify.TaggedWrap(classify.TagCorrupted, err, "read sheet %q", sheet)
			continue
		}
		raw, err := p.parseRows(rows, opts, func(rowIdx, colIdx int) string {
			return cellFillColor(f, sheet, colIdx, rowIdx)
		})
		if err != nil {
			lastErr = err
			continue
		}
		raw.SourceType = constants.EXCEL
		return raw, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, classify.Tagged(classify.TagNoText, "document contains no readable text content")
}

func (p *Parser) parseCSV(path string, opts options) (*extract.RawExtraction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, classify.TaggedWrap(classify.TagUnreadable, err, "cannot open file %s", filepath.Base(path))
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, classify.TaggedWrap(classify.TagCorrupted, err, "invalid format in %s", filepath.Base(path))
	}

	raw, err := p.parseRows(rows, opts, nil)
	if err != nil {
		return nil, err
	}
	raw.SourceType = constants.EXCEL
	return raw, nil
}

// columnMap holds the resolved header layout. -1 means unmapped.
type columnMap struct {
	headerRow int
	depth     int
	material  int
	color     int
}

func (m columnMap) mapped() int {
	n := 0
	for _, c := range []int{m.depth, m.material, m.color} {
		if c >= 0 {
			n++
		}
	}
	return n
}

// parseRows extracts signal points from a row grid. fillColor, when
// non-nil, resolves the fill color of a cell for workbooks.
func (p *Parser) parseRows(rows [][]string, opts options, fillColor func(rowIdx, colIdx int) string) (*extract.RawExtraction, error) {
	raw := &extract.RawExtraction{}
	for _, row := range rows {
		for _, cell := range row {
			raw.TextVolume += len(cell)
		}
	}
	if raw.TextVolume == 0 {
		return nil, classify.Tagged(classify.TagNoText, "document contains no readable text content")
	}

	cols := detectColumns(rows)
	raw.MappedColumns = cols.mapped()

	if cols.depth >= 0 && !opts.relaxed {
		p.collectMapped(rows, cols, fillColor, raw)
	} else if opts.relaxed {
		p.collectRelaxed(rows, fillColor, raw)
	} else {
		return nil, classify.Tagged(classify.TagInvalidFormat, "invalid format: no depth column header found")
	}

	if err := raw.CheckReadability(); err != nil {
		return nil, err
	}
	return raw, nil
}

func (p *Parser) collectMapped(rows [][]string, cols columnMap, fillColor func(int, int) string, raw *extract.RawExtraction) {
	if cols.headerRow >= 0 && cols.depth < len(rows[cols.headerRow]) {
		raw.DepthUnit = HeaderUnit(rows[cols.headerRow][cols.depth])
	}
	for i := cols.headerRow + 1; i < len(rows); i++ {
		row := rows[i]
		if cols.depth >= len(row) {
			continue
		}
		depth, unit, ok := parseDepthToken(row[cols.depth])
		if ok && unit != "" && raw.DepthUnit == "" {
			raw.DepthUnit = unit
		}

		material := ""
		if cols.material >= 0 && cols.material < len(row) {
			material = p.matchMaterial(row[cols.material])
		}

		color := ""
		if cols.color >= 0 && cols.color < len(row) {
			color = strings.TrimSpace(strings.ToLower(row[cols.color]))
		}
		if color == "" && fillColor != nil {
			col := cols.depth
			if cols.material >= 0 {
				col = cols.material
			}
			color = fillColor(i, col)
		}

		if !ok {
			if material == "" {
				continue
			}
			// A labeled row whose depth cell is blank or garbled is kept
			// as NaN so normalization can interpolate it from neighbors.
			depth = math.NaN()
		}

		raw.Append(depth, material, color)
	}
}

// collectRelaxed pattern-scans every row: the first depth-shaped cell is
// the depth, the first vocabulary match is the material.
func (p *Parser) collectRelaxed(rows [][]string, fillColor func(int, int) string, raw *extract.RawExtraction) {
	for i, row := range rows {
		depth := 0.0
		depthCol := -1
		unit := ""
		material := ""
		color := ""
		for j, cell := range row {
			if depthCol < 0 {
				if d, u, ok := parseDepthToken(cell); ok {
					depth, unit, depthCol = d, u, j
					continue
				}
			}
			if material == "" {
				material = p.matchMaterial(cell)
			}
		}
		if depthCol < 0 {
			continue
		}
		if unit != "" && raw.DepthUnit == "" {
			raw.DepthUnit = unit
		}
		if fillColor != nil {
			color = fillColor(i, depthCol)
		}
		raw.Append(depth, material, color)
	}
}

// detectColumns scans the leading rows for a header naming the depth,
// material and color columns.
func detectColumns(rows [][]string) columnMap {
	cols := columnMap{headerRow: -1, depth: -1, material: -1, color: -1}
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		candidate := columnMap{headerRow: i, depth: -1, material: -1, color: -1}
		for j, cell := range rows[i] {
			lower := strings.ToLower(strings.TrimSpace(cell))
			switch {
			case candidate.depth < 0 && strings.Contains(lower, "depth"):
				candidate.depth = j
			case candidate.material < 0 && containsAny(lower, "material", "soil", "lithology", "stratum", "description", "type"):
				candidate.material = j
			case candidate.color < 0 && containsAny(lower, "color", "colour", "fill"):
				candidate.color = j
			}
		}
		if candidate.depth >= 0 {
			return candidate
		}
	}
	return cols
}

// HeaderUnit extracts a unit hint from a depth header cell.
func HeaderUnit(cell string) string {
	m := headerUnitRe.FindStringSubmatch(cell)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// parseDepthToken parses a depth label cell. For ranges ("0 - 5 ft") the
// low bound is the signal point; the high bound becomes the next point's
// start in well-formed charts.
func parseDepthToken(cell string) (float64, string, bool) {
	m := depthTokenRe.FindStringSubmatch(cell)
	if m == nil {
		return 0, "", false
	}
	var value float64
	if _, err := fmt.Sscanf(m[1], "%f", &value); err != nil {
		return 0, "", false
	}
	return value, strings.ToLower(m[3]), true
}

// matchMaterial resolves a free-text cell against the vocabulary,
// normalizing multi-word labels to title case. Unmatched text yields ""
// which propagates into an unmatched, low-confidence layer downstream.
func (p *Parser) matchMaterial(cell string) string {
	text := strings.ToLower(strings.TrimSpace(cell))
	if text == "" {
		return ""
	}
	if canon, ok := constants.Canonicalize(text); ok {
		return string(canon)
	}
	for _, kw := range p.materials {
		if strings.Contains(text, kw) {
			return constants.TitleCase(text)
		}
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// cellFillColor resolves the fill color of a cell, lowercased hex without
// the leading '#'. Empty when the cell has no themed fill.
func cellFillColor(f *excelize.File, sheet string, col, row int) string {
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return ""
	}
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return ""
	}
	style, err := f.GetStyle(styleID)
	if err != nil || style == nil || len(style.Fill.Color) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(style.Fill.Color[0], "#"))
}
