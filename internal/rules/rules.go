// Package rules loads and indexes the declarative rule store: material/class
// compatibility, coating compatibility, per-type dimension patterns, and the
// ordered complexity-tier table. The store is read-only after Load; hot reload
// means loading a fresh Store and swapping the pointer, never mutating one
// that in-flight documents may hold.
package rules

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/common"
)

// MaterialClassRule lists the strength classes a material may carry.
// An empty list means the material carries no strength class at all.
type MaterialClassRule struct {
	Material       string
	AllowedClasses []string
}

// CoatingRule describes which coatings a material should or must not have.
type CoatingRule struct {
	Material    string
	Recommended []string
	Prohibited  []string
}

// DimensionRule holds the compiled dimension patterns for one fastener type.
type DimensionRule struct {
	Type           constants.FastenerType
	RequiresClasse bool
	Patterns       []*regexp.Regexp
	Raw            []string
}

// Matches reports whether the dimension string matches any registered pattern.
func (r DimensionRule) Matches(dimension string) bool {
	for _, p := range r.Patterns {
		if p.MatchString(dimension) {
			return true
		}
	}
	return false
}

// TierCondition is one predicate block for a tier. Nil bounds are
// unconstrained; an all-nil block matches every document.
type TierCondition struct {
	Formats        []constants.FileFormat
	MinSizeMB      *float64
	MaxSizeMB      *float64
	MinPages       *int
	MaxPages       *int
	Searchable     *bool
	MinScanQuality *float64
	MaxScanQuality *float64
	MinHandwriting *float64
	MaxHandwriting *float64
}

// Tier is one complexity level with its routing decision.
type Tier struct {
	Tier            int
	Name            string
	Primary         constants.ParserID
	Fallbacks       []constants.ParserID
	ExpectedQuality float64
	AvgLatencyS     float64
	Match           []TierCondition
}

// Store is the loaded, immutable rule set.
type Store struct {
	materialClass []MaterialClassRule // sorted by descending key length
	coatings      []CoatingRule       // sorted by descending key length
	dimensions    map[constants.FastenerType]DimensionRule
	tiers         []Tier
}

// yaml document shape

type rulesDoc struct {
	MaterialClass map[string]struct {
		AllowedClasses []string `yaml:"allowed_classes"`
	} `yaml:"material_class_compatibility"`
	Coatings map[string]struct {
		Recommended []string `yaml:"recommended_coatings"`
		Prohibited  []string `yaml:"prohibited_coatings"`
	} `yaml:"coating_compatibility"`
	Dimensions map[string]struct {
		RequiresClasse bool     `yaml:"requires_classe"`
		Patterns       []string `yaml:"patterns"`
	} `yaml:"dimension_patterns"`
	Tiers []tierDoc `yaml:"tiers"`
}

type tierDoc struct {
	Tier            int            `yaml:"tier"`
	Name            string         `yaml:"name"`
	PrimaryParser   string         `yaml:"primary_parser"`
	FallbackParsers []string       `yaml:"fallback_parsers"`
	ExpectedQuality float64        `yaml:"expected_quality"`
	AvgLatencyS     float64        `yaml:"avg_latency_s"`
	Match           []conditionDoc `yaml:"match"`
}

type conditionDoc struct {
	Formats        []string `yaml:"formats"`
	MinSizeMB      *float64 `yaml:"min_size_mb"`
	MaxSizeMB      *float64 `yaml:"max_size_mb"`
	MinPages       *int     `yaml:"min_pages"`
	MaxPages       *int     `yaml:"max_pages"`
	Searchable     *bool    `yaml:"searchable"`
	MinScanQuality *float64 `yaml:"min_scan_quality"`
	MaxScanQuality *float64 `yaml:"max_scan_quality"`
	MinHandwriting *float64 `yaml:"min_handwriting"`
	MaxHandwriting *float64 `yaml:"max_handwriting"`
}

// Load reads and validates the rule store asset. Every schema violation is
// fatal: the process must not start with a partial or inconsistent rule set.
func Load(path string) (*Store, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, common.ConfigurationErrorf("read rule store %s: %v", path, err)
	}
	var doc rulesDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, common.ConfigurationErrorf("decode rule store %s: %v", path, err)
	}

	s := &Store{dimensions: make(map[constants.FastenerType]DimensionRule)}

	if len(doc.MaterialClass) == 0 {
		return nil, common.ConfigurationErrorf("material_class_compatibility is empty")
	}
	for material, r := range doc.MaterialClass {
		s.materialClass = append(s.materialClass, MaterialClassRule{
			Material:       strings.ToLower(material),
			AllowedClasses: r.AllowedClasses,
		})
	}
	// Longest key first so "aço inox 304" wins over "aço inox".
	sort.Slice(s.materialClass, func(i, j int) bool {
		return len(s.materialClass[i].Material) > len(s.materialClass[j].Material)
	})

	for material, r := range doc.Coatings {
		s.coatings = append(s.coatings, CoatingRule{
			Material:    strings.ToLower(material),
			Recommended: lowerAll(r.Recommended),
			Prohibited:  lowerAll(r.Prohibited),
		})
	}
	sort.Slice(s.coatings, func(i, j int) bool {
		return len(s.coatings[i].Material) > len(s.coatings[j].Material)
	})

	if len(doc.Dimensions) == 0 {
		return nil, common.ConfigurationErrorf("dimension_patterns is empty")
	}
	for tipo, r := range doc.Dimensions {
		ft, ok := constants.CanonicalizeType(tipo)
		if !ok {
			return nil, common.ConfigurationErrorf("dimension_patterns: unknown fastener type %q", tipo)
		}
		if len(r.Patterns) == 0 {
			return nil, common.ConfigurationErrorf("dimension_patterns: type %q has no patterns", tipo)
		}
		rule := DimensionRule{Type: ft, RequiresClasse: r.RequiresClasse, Raw: r.Patterns}
		for _, p := range r.Patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, common.ConfigurationErrorf("dimension_patterns: type %q pattern %q: %v", tipo, p, err)
			}
			rule.Patterns = append(rule.Patterns, re)
		}
		s.dimensions[ft] = rule
	}

	tiers, err := buildTiers(doc.Tiers)
	if err != nil {
		return nil, err
	}
	s.tiers = tiers

	return s, nil
}

func buildTiers(docs []tierDoc) ([]Tier, error) {
	if len(docs) == 0 {
		return nil, common.ConfigurationErrorf("tiers is empty")
	}
	tiers := make([]Tier, 0, len(docs))
	for i, td := range docs {
		if td.Tier != i+1 {
			return nil, common.ConfigurationErrorf("tiers: expected tier %d at position %d, got %d", i+1, i, td.Tier)
		}
		if td.Name == "" {
			return nil, common.ConfigurationErrorf("tiers: tier %d has no name", td.Tier)
		}
		primary := constants.ParserID(td.PrimaryParser)
		if !constants.IsKnownParser(primary) {
			return nil, common.ConfigurationErrorf("tiers: tier %d references unknown parser %q", td.Tier, td.PrimaryParser)
		}
		if len(td.FallbackParsers) > 2 {
			return nil, common.ConfigurationErrorf("tiers: tier %d has %d fallbacks, max 2", td.Tier, len(td.FallbackParsers))
		}
		var fallbacks []constants.ParserID
		for _, f := range td.FallbackParsers {
			id := constants.ParserID(f)
			if !constants.IsKnownParser(id) {
				return nil, common.ConfigurationErrorf("tiers: tier %d fallback references unknown parser %q", td.Tier, f)
			}
			if id == primary {
				return nil, common.ConfigurationErrorf("tiers: tier %d lists primary %q as its own fallback", td.Tier, f)
			}
			fallbacks = append(fallbacks, id)
		}
		if td.ExpectedQuality <= 0 || td.ExpectedQuality > 1 {
			return nil, common.ConfigurationErrorf("tiers: tier %d expected_quality %v out of (0,1]", td.Tier, td.ExpectedQuality)
		}
		if len(td.Match) == 0 {
			return nil, common.ConfigurationErrorf("tiers: tier %d has no match conditions", td.Tier)
		}
		t := Tier{
			Tier:            td.Tier,
			Name:            td.Name,
			Primary:         primary,
			Fallbacks:       fallbacks,
			ExpectedQuality: td.ExpectedQuality,
			AvgLatencyS:     td.AvgLatencyS,
		}
		for _, cd := range td.Match {
			cond := TierCondition{
				MinSizeMB:      cd.MinSizeMB,
				MaxSizeMB:      cd.MaxSizeMB,
				MinPages:       cd.MinPages,
				MaxPages:       cd.MaxPages,
				Searchable:     cd.Searchable,
				MinScanQuality: cd.MinScanQuality,
				MaxScanQuality: cd.MaxScanQuality,
				MinHandwriting: cd.MinHandwriting,
				MaxHandwriting: cd.MaxHandwriting,
			}
			for _, f := range cd.Formats {
				format := constants.MapExtToFormat(f)
				if format == "" {
					return nil, common.ConfigurationErrorf("tiers: tier %d references unknown format %q", td.Tier, f)
				}
				cond.Formats = append(cond.Formats, format)
			}
			t.Match = append(t.Match, cond)
		}
		tiers = append(tiers, t)
	}

	// Ordering consistency: a lower tier's predicate must never be a superset
	// of a later tier's, or the later tier would be unreachable.
	for i := 0; i < len(tiers); i++ {
		for j := i + 1; j < len(tiers); j++ {
			for _, a := range tiers[i].Match {
				for _, b := range tiers[j].Match {
					if subsumes(a, b) {
						return nil, common.ConfigurationErrorf(
							"tiers: tier %d predicate shadows tier %d", tiers[i].Tier, tiers[j].Tier)
					}
				}
			}
		}
	}

	// The last tier must be a catch-all so classification is total.
	last := tiers[len(tiers)-1]
	catchAll := false
	for _, c := range last.Match {
		if c.unconstrained() {
			catchAll = true
		}
	}
	if !catchAll {
		return nil, common.ConfigurationErrorf("tiers: last tier %d must contain a catch-all predicate", last.Tier)
	}

	return tiers, nil
}

func (c TierCondition) unconstrained() bool {
	return len(c.Formats) == 0 &&
		c.MinSizeMB == nil && c.MaxSizeMB == nil &&
		c.MinPages == nil && c.MaxPages == nil &&
		c.Searchable == nil &&
		c.MinScanQuality == nil && c.MaxScanQuality == nil &&
		c.MinHandwriting == nil && c.MaxHandwriting == nil
}

// subsumes reports whether every document matched by b is also matched by a.
// Conservative: unknown relationships count as non-subsuming.
func subsumes(a, b TierCondition) bool {
	if len(a.Formats) > 0 {
		if len(b.Formats) == 0 {
			return false
		}
		for _, f := range b.Formats {
			if !containsFormat(a.Formats, f) {
				return false
			}
		}
	}
	if !boundSubsumesFloat(a.MinSizeMB, a.MaxSizeMB, b.MinSizeMB, b.MaxSizeMB) {
		return false
	}
	if !boundSubsumesInt(a.MinPages, a.MaxPages, b.MinPages, b.MaxPages) {
		return false
	}
	if a.Searchable != nil && (b.Searchable == nil || *a.Searchable != *b.Searchable) {
		return false
	}
	if !boundSubsumesFloat(a.MinScanQuality, a.MaxScanQuality, b.MinScanQuality, b.MaxScanQuality) {
		return false
	}
	if !boundSubsumesFloat(a.MinHandwriting, a.MaxHandwriting, b.MinHandwriting, b.MaxHandwriting) {
		return false
	}
	return true
}

func boundSubsumesFloat(aMin, aMax, bMin, bMax *float64) bool {
	if aMin != nil && (bMin == nil || *bMin < *aMin) {
		return false
	}
	if aMax != nil && (bMax == nil || *bMax > *aMax) {
		return false
	}
	return true
}

func boundSubsumesInt(aMin, aMax, bMin, bMax *int) bool {
	if aMin != nil && (bMin == nil || *bMin < *aMin) {
		return false
	}
	if aMax != nil && (bMax == nil || *bMax > *aMax) {
		return false
	}
	return true
}

func containsFormat(formats []constants.FileFormat, f constants.FileFormat) bool {
	for _, x := range formats {
		if x == f {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// ClassesFor returns the material-class rule for a record material, using
// longest-key substring matching ("aço inox 304 polido" matches the
// "aço inox 304" rule).
func (s *Store) ClassesFor(material string) (MaterialClassRule, bool) {
	m := strings.ToLower(material)
	for _, r := range s.materialClass {
		if strings.Contains(m, r.Material) {
			return r, true
		}
	}
	return MaterialClassRule{}, false
}

// CoatingRuleFor returns the coating rule matching a record material.
func (s *Store) CoatingRuleFor(material string) (CoatingRule, bool) {
	m := strings.ToLower(material)
	for _, r := range s.coatings {
		if strings.Contains(m, r.Material) {
			return r, true
		}
	}
	return CoatingRule{}, false
}

// DimensionRuleFor returns the dimension rule for a fastener type.
func (s *Store) DimensionRuleFor(tipo constants.FastenerType) (DimensionRule, bool) {
	r, ok := s.dimensions[tipo]
	return r, ok
}

// Tiers returns the ordered tier table. Callers must treat it as read-only.
func (s *Store) Tiers() []Tier {
	return s.tiers
}

// String summarizes the store for startup logging.
func (s *Store) String() string {
	return fmt.Sprintf("rules{materials=%d coatings=%d dimension_types=%d tiers=%d}",
		len(s.materialClass), len(s.coatings), len(s.dimensions), len(s.tiers))
}
