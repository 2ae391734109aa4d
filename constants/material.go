package constants

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Material is a canonical geological material classification.
type Material string

const (
	Clay      Material = "Clay"
	Sand      Material = "Sand"
	Gravel    Material = "Gravel"
	Silt      Material = "Silt"
	Rock      Material = "Rock"
	Limestone Material = "Limestone"
	Sandstone Material = "Sandstone"
	Shale     Material = "Shale"
	Topsoil   Material = "Topsoil"
	Fill      Material = "Fill"
	Bedrock   Material = "Bedrock"
	Loam      Material = "Loam"
	Peat      Material = "Peat"
	Boulders  Material = "Boulders"
	Cobbles   Material = "Cobbles"
)

var allMaterials = []Material{
	Clay,
	Sand,
	Gravel,
	Silt,
	Rock,
	Limestone,
	Sandstone,
	Shale,
	Topsoil,
	Fill,
	Bedrock,
	Loam,
	Peat,
	Boulders,
	Cobbles,
}

// DefaultMaterialKeywords returns the lowercase keyword list used by the
// format parsers when scanning free text for material labels. Callers get
// a fresh slice; the canonical list is never mutated.
func DefaultMaterialKeywords() []string {
	result := make([]string, len(allMaterials))
	for i, m := range allMaterials {
		result[i] = strings.ToLower(string(m))
	}
	return result
}

// materialSynonyms maps common driller shorthand to canonical materials.
var materialSynonyms = map[string]Material{
	"top soil":    Topsoil,
	"overburden":  Topsoil,
	"ls":          Limestone,
	"lst":         Limestone,
	"ss":          Sandstone,
	"sh":          Shale,
	"made ground": Fill,
	"hardpan":     Bedrock,
}

// Canonicalize maps a raw material label to its canonical form.
// Returns false when the label is not in the vocabulary; compound labels
// ("sandy clay") pass through title-cased since they still name a material.
func Canonicalize(input string) (Material, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	if m, ok := materialSynonyms[normalized]; ok {
		return m, true
	}

	for _, m := range allMaterials {
		if normalized == strings.ToLower(string(m)) {
			return m, true
		}
	}

	// Compound label containing a known keyword ("sandy clay", "clay with gravel").
	for _, m := range allMaterials {
		if strings.Contains(normalized, strings.ToLower(string(m))) {
			return Material(TitleCase(normalized)), true
		}
	}

	return "", false
}

var titleCaser = cases.Title(language.English)

// TitleCase normalizes a multi-word material label ("sandy clay" -> "Sandy Clay").
func TitleCase(s string) string {
	return titleCaser.String(strings.ToLower(strings.TrimSpace(s)))
}
