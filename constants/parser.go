package constants

// ParserID identifies a parsing backend. Parsers are interchangeable services:
// given a document they return raw text plus a self-reported confidence.
type ParserID string

const (
	// ParserStructured is the layout-aware parser for digital PDFs.
	ParserStructured ParserID = "structured"
	// ParserVision is the vision-model parser for scans, photos and handwriting.
	ParserVision ParserID = "vision"
	// ParserTabular is the row/column parser for CSV and spreadsheets.
	ParserTabular ParserID = "tabular"
)

// KnownParsers lists every parser the tier table may reference.
var KnownParsers = []ParserID{ParserStructured, ParserVision, ParserTabular}

// IsKnownParser reports whether id names a registered backend.
func IsKnownParser(id ParserID) bool {
	for _, p := range KnownParsers {
		if p == id {
			return true
		}
	}
	return false
}
