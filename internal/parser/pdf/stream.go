package pdf

import (
	"bytes"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// fragment is one positioned run of text from a content stream. pos grows
// downward through the document so sorting by pos follows reading order.
type fragment struct {
	pos  float64
	text string
}

// colorMark is one filled rectangle, recorded as a color signal at its
// vertical center.
type colorMark struct {
	pos   float64
	color string
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

const (
	defaultPageHeight = 792.0
	defaultLeading    = 14.0
)

// streamScanner walks a content stream tracking the text position and the
// nonstroking fill color, collecting text fragments and color marks.
// It is an approximation: it reads the vertical component of Tm/Td/TD/T*
// and ignores rotation, which is enough for column-oriented bore charts.
type streamScanner struct {
	pageOffset float64 // cumulative offset of this page in document order

	y       float64
	leading float64
	fill    string // current nonstroking color, named
	rectY   float64
	hasRect bool

	fragments []fragment
	marks     []colorMark
}

func newStreamScanner(pageIndex int) *streamScanner {
	return &streamScanner{
		pageOffset: float64(pageIndex) * defaultPageHeight,
		y:          defaultPageHeight,
		leading:    defaultLeading,
	}
}

// pos converts the current PDF y coordinate (origin bottom-left) into a
// top-down document ordinate.
func (s *streamScanner) pos() float64 {
	return s.pageOffset + (defaultPageHeight - s.y)
}

func (s *streamScanner) scan(data []byte) {
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		s.scanLine(line)
	}
}

func (s *streamScanner) scanLine(line []byte) {
	switch {
	case bytes.HasSuffix(line, []byte("Tm")):
		if ops := operands(line, 6); ops != nil {
			s.y = ops[5]
		}
	case bytes.HasSuffix(line, []byte("TD")):
		if ops := operands(line, 2); ops != nil {
			s.leading = -ops[1]
			s.y += ops[1]
		}
	case bytes.HasSuffix(line, []byte("Td")):
		if ops := operands(line, 2); ops != nil {
			s.y += ops[1]
		}
	case bytes.Equal(line, []byte("T*")):
		s.y -= s.leading
	case bytes.HasSuffix(line, []byte("TL")):
		if ops := operands(line, 1); ops != nil {
			s.leading = ops[0]
		}
	case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")), bytes.HasSuffix(line, []byte("'")):
		if bytes.HasSuffix(line, []byte("'")) {
			s.y -= s.leading
		}
		var sb strings.Builder
		for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
			sb.WriteString(decodePDFString(m[1]))
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			s.fragments = append(s.fragments, fragment{pos: s.pos(), text: text})
		}
	case bytes.HasSuffix(line, []byte("rg")):
		if ops := operands(line, 3); ops != nil {
			s.fill = nearestColorName(ops[0], ops[1], ops[2])
		}
	case bytes.HasSuffix(line, []byte(" g")):
		if ops := operands(line, 1); ops != nil {
			s.fill = nearestColorName(ops[0], ops[0], ops[0])
		}
	case bytes.HasSuffix(line, []byte("re")):
		if ops := operands(line, 4); ops != nil {
			s.rectY = ops[1] + ops[3]/2
			s.hasRect = true
		}
	case bytes.Equal(line, []byte("f")), bytes.Equal(line, []byte("f*")), bytes.Equal(line, []byte("F")):
		if s.hasRect && s.fill != "" && s.fill != "white" {
			s.marks = append(s.marks, colorMark{
				pos:   s.pageOffset + (defaultPageHeight - s.rectY),
				color: s.fill,
			})
		}
		s.hasRect = false
	}
}

// operands parses the trailing n numeric operands before the operator.
func operands(line []byte, n int) []float64 {
	fields := strings.Fields(string(line))
	if len(fields) < n+1 {
		return nil
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(fields[len(fields)-1-n+i], 64)
		if err != nil {
			return nil
		}
		out[i] = v
	}
	return out
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// namedColors is the palette bore charts actually use; fills are snapped
// to the nearest entry.
var namedColors = []struct {
	name    string
	r, g, b float64
}{
	{"black", 0, 0, 0},
	{"white", 1, 1, 1},
	{"gray", 0.5, 0.5, 0.5},
	{"red", 1, 0, 0},
	{"green", 0, 0.6, 0},
	{"blue", 0, 0, 1},
	{"yellow", 1, 1, 0},
	{"orange", 1, 0.65, 0},
	{"brown", 0.6, 0.4, 0.2},
	{"tan", 0.82, 0.71, 0.55},
}

func nearestColorName(r, g, b float64) string {
	best := ""
	bestDist := math.Inf(1)
	for _, c := range namedColors {
		d := (r-c.r)*(r-c.r) + (g-c.g)*(g-c.g) + (b-c.b)*(b-c.b)
		if d < bestDist {
			bestDist = d
			best = c.name
		}
	}
	return best
}

// groupLines merges fragments sharing (approximately) the same ordinate
// into single lines, ordered top to bottom.
func groupLines(frags []fragment) []fragment {
	if len(frags) == 0 {
		return nil
	}
	byPos := make(map[float64]*strings.Builder)
	var order []float64
	for _, f := range frags {
		key := math.Round(f.pos)
		if _, ok := byPos[key]; !ok {
			byPos[key] = &strings.Builder{}
			order = append(order, key)
		}
		if byPos[key].Len() > 0 {
			byPos[key].WriteByte(' ')
		}
		byPos[key].WriteString(f.text)
	}
	lines := make([]fragment, 0, len(order))
	for _, key := range order {
		lines = append(lines, fragment{pos: key, text: byPos[key].String()})
	}
	// stable top-down order
	for i := 1; i < len(lines); i++ {
		for j := i; j > 0 && lines[j].pos < lines[j-1].pos; j-- {
			lines[j], lines[j-1] = lines[j-1], lines[j]
		}
	}
	return lines
}
