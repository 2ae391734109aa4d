package fallback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/strataspect/borelog/constants"
	"github.com/strataspect/borelog/internal/entity"
)

// templateSchema constrains template documents loaded from disk. Thickness
// fractions must sum to roughly 1; that is checked after decoding since
// JSON Schema cannot express it.
const templateSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["name", "layers"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "layers": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["material", "thickness_fraction"],
        "properties": {
          "material": {"type": "string", "minLength": 1},
          "thickness_fraction": {"type": "number", "exclusiveMinimum": 0, "maximum": 1}
        }
      }
    }
  }
}`

// TemplateLayer is one proportional slice of a template profile.
type TemplateLayer struct {
	Material          string  `json:"material"`
	ThicknessFraction float64 `json:"thickness_fraction"`
}

// Template is a reusable strata profile applied over an observed depth
// span to prefill layers for review.
type Template struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Layers      []TemplateLayer `json:"layers"`
}

// Apply scales the template's proportional layers onto [start, end].
// Prefilled layers are never trusted: low confidence, fallback source.
func (t *Template) Apply(start, end float64) []entity.ExtractedLayer {
	span := end - start
	if span <= 0 || len(t.Layers) == 0 {
		return nil
	}
	var total float64
	for _, l := range t.Layers {
		total += l.ThicknessFraction
	}
	if total <= 0 {
		return nil
	}

	result := make([]entity.ExtractedLayer, 0, len(t.Layers))
	cursor := start
	for i, l := range t.Layers {
		thickness := span * l.ThicknessFraction / total
		endDepth := cursor + thickness
		if i == len(t.Layers)-1 {
			endDepth = end
		}
		result = append(result, entity.ExtractedLayer{
			Material:   l.Material,
			StartDepth: cursor,
			EndDepth:   endDepth,
			Confidence: constants.ConfidenceLow,
			Source:     constants.SourceFallback,
		})
		cursor = endDepth
	}
	return result
}

// TemplateLibrary holds validated templates.
type TemplateLibrary struct {
	templates []Template
	schema    *jsonschema.Schema
}

func newLibrary() *TemplateLibrary {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("template.json", strings.NewReader(templateSchema)); err != nil {
		panic(fmt.Sprintf("template schema resource: %v", err))
	}
	return &TemplateLibrary{schema: compiler.MustCompile("template.json")}
}

// BuiltinTemplates returns the library preloaded with generic profiles
// covering the common bore sections.
func BuiltinTemplates() *TemplateLibrary {
	lib := newLibrary()
	lib.templates = []Template{
		{
			Name:        "shallow-residential",
			Description: "Typical shallow residential bore: topsoil over clay over sand",
			Layers: []TemplateLayer{
				{Material: "Topsoil", ThicknessFraction: 0.1},
				{Material: "Clay", ThicknessFraction: 0.5},
				{Material: "Sand", ThicknessFraction: 0.4},
			},
		},
		{
			Name:        "sedimentary",
			Description: "Layered sedimentary profile down to bedrock",
			Layers: []TemplateLayer{
				{Material: "Topsoil", ThicknessFraction: 0.05},
				{Material: "Clay", ThicknessFraction: 0.25},
				{Material: "Sand", ThicknessFraction: 0.25},
				{Material: "Gravel", ThicknessFraction: 0.2},
				{Material: "Bedrock", ThicknessFraction: 0.25},
			},
		},
	}
	return lib
}

// LoadTemplateDir loads and validates every *.json template in dir,
// appended after the builtins.
func LoadTemplateDir(dir string) (*TemplateLibrary, error) {
	lib := BuiltinTemplates()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		t, err := lib.loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", e.Name(), err)
		}
		lib.templates = append(lib.templates, t)
	}
	return lib, nil
}

func (l *TemplateLibrary) loadFile(path string) (Template, error) {
	var t Template
	data, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return t, fmt.Errorf("decode: %w", err)
	}
	if err := l.schema.Validate(doc); err != nil {
		return t, fmt.Errorf("schema: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("decode: %w", err)
	}

	var total float64
	for _, layer := range t.Layers {
		total += layer.ThicknessFraction
	}
	if total < 0.99 || total > 1.01 {
		return t, fmt.Errorf("thickness fractions sum to %.2f, want 1.0", total)
	}
	return t, nil
}

// Len returns the number of available templates.
func (l *TemplateLibrary) Len() int {
	return len(l.templates)
}

// Match picks the template whose layer count is closest to (and at least)
// the number of detected layers, falling back to the first template.
// Matching beyond layer count is intentionally out of scope; the session
// always routes through human review.
func (l *TemplateLibrary) Match(detectedLayers int) *Template {
	if len(l.templates) == 0 {
		return nil
	}
	best := -1
	for i := range l.templates {
		n := len(l.templates[i].Layers)
		if n >= detectedLayers {
			if best < 0 || n < len(l.templates[best].Layers) {
				best = i
			}
		}
	}
	if best < 0 {
		best = 0
	}
	return &l.templates[best]
}
