// Package pdf reads borehole strata charts from PDF documents by parsing
// page content streams directly, correlating depth labels, material text
// and color fills by vertical proximity.
package pdf

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/strataspect/borelog/constants"
	"github.com/strataspect/borelog/internal/classify"
	"github.com/strataspect/borelog/internal/extract"
)

// depthLabelRe matches depth labels inside a text line: a number with an
// optional unit, optionally prefixed with "depth:".
var depthLabelRe = regexp.MustCompile(`(?i)(?:depth\s*:?\s*)?(-?\d+(?:\.\d+)?)\s*(ft|feet|foot|'|m\b|meters|meter|metres|metre)?`)

// Parser reads strata signals from PDF bore charts.
type Parser struct {
	logger         *slog.Logger
	materials      []string
	materialRe     *regexp.Regexp
	maxCorrelation float64
}

func New(materials []string, maxCorrelation float64, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	if len(materials) == 0 {
		materials = constants.DefaultMaterialKeywords()
	}
	if maxCorrelation <= 0 {
		maxCorrelation = 50
	}
	return &Parser{
		logger:         logger,
		materials:      materials,
		materialRe:     buildMaterialRe(materials),
		maxCorrelation: maxCorrelation,
	}
}

// buildMaterialRe compiles a matcher for vocabulary keywords with an
// optional texture modifier ("sandy clay", "weathered shale").
func buildMaterialRe(materials []string) *regexp.Regexp {
	quoted := make([]string, len(materials))
	for i, m := range materials {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return regexp.MustCompile(`(?i)\b((?:sandy|silty|clayey|gravelly|weathered|fractured)\s+)?(` + strings.Join(quoted, "|") + `)\b`)
}

// Parse runs the primary position-correlated strategy over all pages.
func (p *Parser) Parse(ctx context.Context, path string) (*extract.RawExtraction, error) {
	return p.parse(ctx, path, options{})
}

// Strategies returns the ordered retry chain for positional sources.
func (p *Parser) Strategies() []extract.ParseStrategy {
	return []extract.ParseStrategy{
		{Name: "pdf-position", Attempt: func(ctx context.Context, path string) (*extract.RawExtraction, error) {
			return p.parse(ctx, path, options{})
		}},
		{Name: "pdf-linear", Attempt: func(ctx context.Context, path string) (*extract.RawExtraction, error) {
			return p.parse(ctx, path, options{linear: true})
		}},
		{Name: "pdf-page-by-page", Attempt: func(ctx context.Context, path string) (*extract.RawExtraction, error) {
			return p.parse(ctx, path, options{pageByPage: true})
		}},
	}
}

type options struct {
	// linear correlates by line adjacency instead of vertical distance.
	linear bool
	// pageByPage stops at the first page that yields signal points.
	pageByPage bool
}

func (p *Parser) parse(ctx context.Context, path string, opts options) (*extract.RawExtraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, classify.TaggedWrap(classify.TagUnreadable, err, "cannot open file %s", filepath.Base(path))
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, classify.TaggedWrap(classify.TagCorrupted, err, "corrupt PDF %s", filepath.Base(path))
	}

	raw := &extract.RawExtraction{SourceType: constants.PDF}

	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frags, marks := extractPage(pctx, pageNr)
		for _, fr := range frags {
			raw.TextVolume += len(fr.text)
		}

		lines := groupLines(frags)
		if opts.linear {
			p.correlateLinear(lines, raw)
		} else {
			p.correlateByDistance(lines, marks, raw)
		}

		if opts.pageByPage && raw.Len() > 0 {
			break
		}
	}

	if err := raw.CheckReadability(); err != nil {
		return nil, err
	}
	return raw, nil
}

// extractPage parses one page's content stream into positioned fragments
// and color marks.
func extractPage(pctx *model.Context, pageNr int) ([]fragment, []colorMark) {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return nil, nil
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil, nil
	}
	s := newStreamScanner(pageNr - 1)
	s.scan(data)
	return s.fragments, s.marks
}

// lineSignal is what one text line contributes before correlation.
type lineSignal struct {
	pos      float64
	depth    float64
	unit     string
	hasDepth bool
	material string
	consumed bool
}

// correlateByDistance pairs each depth-labeled line with the nearest
// material line and the nearest color mark within maxCorrelation.
func (p *Parser) correlateByDistance(lines []fragment, marks []colorMark, raw *extract.RawExtraction) {
	signals := p.scanLines(lines)

	for i := range signals {
		if !signals[i].hasDepth {
			continue
		}
		s := &signals[i]

		material := s.material
		if material == "" {
			if j := p.nearestMaterial(signals, s.pos); j >= 0 {
				material = signals[j].material
				signals[j].consumed = true
			}
		}

		color := ""
		if j := nearestMark(marks, s.pos, p.maxCorrelation); j >= 0 {
			color = marks[j].color
		}

		if s.unit != "" && raw.DepthUnit == "" {
			raw.DepthUnit = s.unit
		}
		raw.Append(s.depth, material, color)
	}
}

// correlateLinear pairs a depth line with material text on the same or the
// immediately following line, ignoring positions. Used when the position
// stream is unreliable.
func (p *Parser) correlateLinear(lines []fragment, raw *extract.RawExtraction) {
	signals := p.scanLines(lines)
	for i := range signals {
		if !signals[i].hasDepth {
			continue
		}
		s := signals[i]
		material := s.material
		if material == "" && i+1 < len(signals) && !signals[i+1].hasDepth {
			material = signals[i+1].material
		}
		if material == "" && i > 0 && !signals[i-1].hasDepth && !signals[i-1].consumed {
			material = signals[i-1].material
		}
		if s.unit != "" && raw.DepthUnit == "" {
			raw.DepthUnit = s.unit
		}
		raw.Append(s.depth, material, "")
	}
}

func (p *Parser) scanLines(lines []fragment) []lineSignal {
	signals := make([]lineSignal, 0, len(lines))
	for _, line := range lines {
		s := lineSignal{pos: line.pos}
		if m := depthLabelRe.FindStringSubmatch(line.text); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				s.depth = v
				s.unit = strings.ToLower(strings.TrimSpace(m[2]))
				s.hasDepth = true
			}
		}
		s.material = p.matchMaterial(line.text)
		signals = append(signals, s)
	}
	return signals
}

// nearestMaterial finds the closest unconsumed material-only line within
// the correlation distance.
func (p *Parser) nearestMaterial(signals []lineSignal, pos float64) int {
	best := -1
	bestDist := p.maxCorrelation
	for j := range signals {
		if signals[j].material == "" || signals[j].hasDepth || signals[j].consumed {
			continue
		}
		d := math.Abs(signals[j].pos - pos)
		if d <= bestDist {
			bestDist = d
			best = j
		}
	}
	return best
}

func nearestMark(marks []colorMark, pos, maxDist float64) int {
	best := -1
	bestDist := maxDist
	for j := range marks {
		d := math.Abs(marks[j].pos - pos)
		if d <= bestDist {
			bestDist = d
			best = j
		}
	}
	return best
}

// matchMaterial resolves line text against the vocabulary, title-casing
// multi-word labels ("sandy clay" -> "Sandy Clay").
func (p *Parser) matchMaterial(text string) string {
	m := p.materialRe.FindString(text)
	if m == "" {
		return ""
	}
	return constants.TitleCase(m)
}
