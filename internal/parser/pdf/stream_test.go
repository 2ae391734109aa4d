package pdf

import "testing"

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`plain text`, "plain text"},
		{`escaped \( paren \)`, "escaped ( paren )"},
		{`line\nbreak`, "line\nbreak"},
		{`back\\slash`, `back\slash`},
		{`octal \101\102`, "octal AB"},
		{`short octal \7!`, "short octal \x07!"},
	}
	for _, tt := range tests {
		if got := decodePDFString([]byte(tt.raw)); got != tt.want {
			t.Errorf("%q: expected %q, got %q", tt.raw, tt.want, got)
		}
	}
}

func TestNearestColorName(t *testing.T) {
	tests := []struct {
		r, g, b float64
		want    string
	}{
		{0, 0, 0, "black"},
		{1, 1, 1, "white"},
		{0.95, 0.05, 0.05, "red"},
		{0.62, 0.38, 0.22, "brown"},
		{0.98, 0.98, 0.05, "yellow"},
	}
	for _, tt := range tests {
		if got := nearestColorName(tt.r, tt.g, tt.b); got != tt.want {
			t.Errorf("(%v, %v, %v): expected %s, got %s", tt.r, tt.g, tt.b, tt.want, got)
		}
	}
}

func TestStreamScanner_TextPositions(t *testing.T) {
	s := newStreamScanner(0)
	s.scan([]byte("BT\n1 0 0 1 72 700 Tm\n(first) Tj\n0 -50 Td\n(second) Tj\nET"))

	if len(s.fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(s.fragments))
	}
	if s.fragments[0].text != "first" || s.fragments[0].pos != 92 {
		t.Errorf("fragment 0: got %+v", s.fragments[0])
	}
	if s.fragments[1].text != "second" || s.fragments[1].pos != 142 {
		t.Errorf("fragment 1: got %+v", s.fragments[1])
	}
}

func TestStreamScanner_LeadingAndNewlineOps(t *testing.T) {
	s := newStreamScanner(0)
	s.scan([]byte("BT\n1 0 0 1 72 700 Tm\n20 TL\n(a) Tj\nT*\n(b) Tj\n(c) '\nET"))

	if len(s.fragments) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(s.fragments))
	}
	// T* and ' each advance one leading of 20.
	if s.fragments[1].pos-s.fragments[0].pos != 20 {
		t.Errorf("T* advance: got %v", s.fragments[1].pos-s.fragments[0].pos)
	}
	if s.fragments[2].pos-s.fragments[1].pos != 20 {
		t.Errorf("' advance: got %v", s.fragments[2].pos-s.fragments[1].pos)
	}
}

func TestStreamScanner_ColorMarks(t *testing.T) {
	s := newStreamScanner(0)
	s.scan([]byte("0.6 0.4 0.2 rg\n100 600 50 40 re\nf\n1 1 1 rg\n100 500 50 40 re\nf"))

	// The white fill is discarded, only the brown mark survives.
	if len(s.marks) != 1 {
		t.Fatalf("expected 1 mark, got %d", len(s.marks))
	}
	if s.marks[0].color != "brown" {
		t.Errorf("expected brown, got %s", s.marks[0].color)
	}
	// Rect center: 600 + 40/2 = 620, top-down 792 - 620 = 172.
	if s.marks[0].pos != 172 {
		t.Errorf("expected pos 172, got %v", s.marks[0].pos)
	}
}

func TestGroupLines(t *testing.T) {
	lines := groupLines([]fragment{
		{pos: 142, text: "Sand"},
		{pos: 92, text: "Depth: 0 ft"},
		{pos: 92.3, text: "Clay"},
	})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].text != "Depth: 0 ft Clay" {
		t.Errorf("expected merged line, got %q", lines[0].text)
	}
	if lines[1].text != "Sand" {
		t.Errorf("expected top-down order, got %q", lines[1].text)
	}
}
