package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forjador/sku-pipeline/constants"
)

const minimalRules = `
material_class_compatibility:
  "aço carbono":
    allowed_classes: ["8.8", "10.9"]
  "aço inox 304":
    allowed_classes: ["A2-70"]
  "plástico":
    allowed_classes: []

coating_compatibility:
  "aço inox":
    recommended_coatings: ["passivado"]
    prohibited_coatings: ["zincado", "galvanizado"]

dimension_patterns:
  parafuso:
    requires_classe: true
    patterns:
      - '^M\d+(\.\d+)?x\d+(\.\d+)?$'
  porca:
    requires_classe: false
    patterns:
      - '^M\d+(\.\d+)?$'

tiers:
  - tier: 1
    name: "csv"
    primary_parser: tabular
    fallback_parsers: [structured]
    expected_quality: 0.95
    avg_latency_s: 1.0
    match:
      - formats: [csv]
  - tier: 2
    name: "catch-all"
    primary_parser: vision
    fallback_parsers: [structured, tabular]
    expected_quality: 0.5
    avg_latency_s: 30.0
    match:
      - {}
`

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMinimal(t *testing.T) {
	s, err := Load(writeRules(t, minimalRules))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(s.Tiers()); got != 2 {
		t.Fatalf("tiers = %d, want 2", got)
	}
	t1 := s.Tiers()[0]
	if t1.Primary != constants.ParserTabular {
		t.Errorf("tier 1 primary = %q, want tabular", t1.Primary)
	}
	if len(t1.Fallbacks) != 1 || t1.Fallbacks[0] != constants.ParserStructured {
		t.Errorf("tier 1 fallbacks = %v", t1.Fallbacks)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(string) string
		wantSub string
	}{
		{
			name:    "unknown parser",
			mutate:  func(s string) string { return strings.Replace(s, "primary_parser: tabular", "primary_parser: magic", 1) },
			wantSub: "unknown parser",
		},
		{
			name:    "no catch-all",
			mutate:  func(s string) string { return strings.Replace(s, "- {}", "- formats: [pdf]", 1) },
			wantSub: "catch-all",
		},
		{
			name:    "non-contiguous tiers",
			mutate:  func(s string) string { return strings.Replace(s, "tier: 2", "tier: 5", 1) },
			wantSub: "expected tier 2",
		},
		{
			name:    "quality out of range",
			mutate:  func(s string) string { return strings.Replace(s, "expected_quality: 0.95", "expected_quality: 1.5", 1) },
			wantSub: "expected_quality",
		},
		{
			name:    "primary as own fallback",
			mutate:  func(s string) string { return strings.Replace(s, "fallback_parsers: [structured]", "fallback_parsers: [tabular]", 1) },
			wantSub: "own fallback",
		},
		{
			name:    "unknown fastener type",
			mutate:  func(s string) string { return strings.Replace(s, "porca:", "engrenagem:", 1) },
			wantSub: "unknown fastener type",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeRules(t, tc.mutate(minimalRules)))
			if err == nil {
				t.Fatal("expected load error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Errorf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestLoadRejectsShadowingTier(t *testing.T) {
	shadowed := strings.Replace(minimalRules, "match:\n      - formats: [csv]",
		"match:\n      - {}", 1)
	_, err := Load(writeRules(t, shadowed))
	if err == nil {
		t.Fatal("expected shadowing error")
	}
	if !strings.Contains(err.Error(), "shadows") {
		t.Errorf("error %q does not mention shadowing", err)
	}
}

func TestClassesForLongestMatch(t *testing.T) {
	s, err := Load(writeRules(t, minimalRules))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		material string
		wantKey  string
		wantOK   bool
	}{
		{"aço carbono", "aço carbono", true},
		{"Aço Carbono zincado", "aço carbono", true},
		{"aço inox 304 polido", "aço inox 304", true},
		{"plástico", "plástico", true},
		{"titânio", "", false},
	}
	for _, tc := range cases {
		r, ok := s.ClassesFor(tc.material)
		if ok != tc.wantOK {
			t.Errorf("ClassesFor(%q) ok = %v, want %v", tc.material, ok, tc.wantOK)
			continue
		}
		if ok && r.Material != tc.wantKey {
			t.Errorf("ClassesFor(%q) = %q, want %q", tc.material, r.Material, tc.wantKey)
		}
	}
}

func TestCoatingRuleFor(t *testing.T) {
	s, err := Load(writeRules(t, minimalRules))
	if err != nil {
		t.Fatal(err)
	}
	r, ok := s.CoatingRuleFor("aço inox 316")
	if !ok {
		t.Fatal("expected coating rule for aço inox 316")
	}
	if len(r.Prohibited) != 2 {
		t.Errorf("prohibited = %v, want 2 entries", r.Prohibited)
	}
	if _, ok := s.CoatingRuleFor("nylon"); ok {
		t.Error("did not expect a coating rule for nylon")
	}
}

func TestDimensionRuleMatches(t *testing.T) {
	s, err := Load(writeRules(t, minimalRules))
	if err != nil {
		t.Fatal(err)
	}
	r, ok := s.DimensionRuleFor(constants.Parafuso)
	if !ok {
		t.Fatal("expected dimension rule for parafuso")
	}
	if !r.RequiresClasse {
		t.Error("parafuso should require a strength class")
	}
	if !r.Matches("M8x30") {
		t.Error("M8x30 should match")
	}
	if r.Matches("banana") {
		t.Error("banana should not match")
	}
}
