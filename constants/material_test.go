package constants

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		input string
		want  Material
		ok    bool
	}{
		{"clay", Clay, true},
		{"CLAY", Clay, true},
		{"  Sand  ", Sand, true},
		{"top soil", Topsoil, true},
		{"ls", Limestone, true},
		{"sandy clay", Material("Sandy Clay"), true},
		{"clay with gravel", Material("Clay With Gravel"), true},
		{"granite", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Canonicalize(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok: expected %v, got %v", tt.ok, ok)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestMapExtToFormat(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".xlsx", EXCEL},
		{"XLS", EXCEL},
		{".csv", EXCEL},
		{".pdf", PDF},
		{".docx", ""},
	}
	for _, tt := range tests {
		if got := MapExtToFormat(tt.ext); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.ext, tt.want, got)
		}
	}
}
