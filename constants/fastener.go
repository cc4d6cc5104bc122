package constants

import "strings"

// FastenerType is one of the eleven fastener categories extracted from
// purchase orders. Values are the canonical Portuguese labels used across
// supplier documents.
type FastenerType string

const (
	Parafuso    FastenerType = "parafuso"     // bolt/screw
	Porca       FastenerType = "porca"        // nut
	Arruela     FastenerType = "arruela"      // washer
	Bucha       FastenerType = "bucha"        // anchor
	Chumbador   FastenerType = "chumbador"    // chemical anchor
	Prisioneiro FastenerType = "prisioneiro"  // stud
	Rebite      FastenerType = "rebite"       // rivet
	Pino        FastenerType = "pino"         // pin
	Grampo      FastenerType = "grampo"       // clamp
	Inserto     FastenerType = "inserto"      // insert
	AnelDeTrava FastenerType = "anel_de_trava" // retaining ring
)

var allFastenerTypes = []FastenerType{
	Parafuso,
	Porca,
	Arruela,
	Bucha,
	Chumbador,
	Prisioneiro,
	Rebite,
	Pino,
	Grampo,
	Inserto,
	AnelDeTrava,
}

// FastenerTypes returns the canonical type labels as strings.
func FastenerTypes() []string {
	result := make([]string, len(allFastenerTypes))
	for i, t := range allFastenerTypes {
		result[i] = string(t)
	}
	return result
}

// CanonicalizeType normalizes free-form type labels ("Anel de trava",
// "PARAFUSO ") to a canonical FastenerType. The boolean reports whether the
// label was recognized.
func CanonicalizeType(input string) (FastenerType, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(input)), " ", "_")
	for _, t := range allFastenerTypes {
		if FastenerType(normalized) == t {
			return t, true
		}
	}
	return "", false
}

// UnitType is a unit of measurement for fastener quantities.
type UnitType string

const (
	UnitUN   UnitType = "UN"   // unit
	UnitCX   UnitType = "CX"   // box
	UnitPCT  UnitType = "PCT"  // package
	UnitKG   UnitType = "KG"   // kilogram
	UnitJOGO UnitType = "JOGO" // set
	UnitPAR  UnitType = "PAR"  // pair
)

var allUnits = []UnitType{UnitUN, UnitCX, UnitPCT, UnitKG, UnitJOGO, UnitPAR}

// UnitTypes returns the valid unit labels as strings.
func UnitTypes() []string {
	result := make([]string, len(allUnits))
	for i, u := range allUnits {
		result[i] = string(u)
	}
	return result
}

// CanonicalizeUnit uppercases and validates a unit label.
func CanonicalizeUnit(input string) (UnitType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))
	for _, u := range allUnits {
		if UnitType(normalized) == u {
			return u, true
		}
	}
	return "", false
}
