package entity

import "time"

// CandidateRecord is a structured fastener specification produced by
// extraction. Field names follow the supplier-document vocabulary the
// extraction model is prompted with. Content is never mutated after
// extraction; validation only annotates.
type CandidateRecord struct {
	Tipo       string  `json:"tipo"`                  // fastener type (parafuso, porca, ...)
	Dimensao   string  `json:"dimensao"`              // M8, M8x30, M8x1.25x30, #8-32, 1/4"-20
	Material   string  `json:"material"`              // aço carbono, aço inox 304, ...
	Classe     string  `json:"classe,omitempty"`      // strength class, optional
	Quantidade int     `json:"quantidade"`            // must be > 0
	Unidade    string  `json:"unidade"`               // UN, CX, PCT, KG, JOGO, PAR
	Descricao  string  `json:"descricao_original"`    // verbatim source text
	Confidence float64 `json:"confidence"`            // extraction confidence, 0..1
	Coating    string  `json:"revestimento,omitempty"` // zincado, galvanizado, ...
	Norma      string  `json:"norma,omitempty"`        // DIN 933, ISO 4017, ...

	ChunkIndex  int       `json:"chunk_index"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// ValidationResult is the outcome of the two-layer validation of one record.
// Errors block acceptance; warnings never do.
type ValidationResult struct {
	Passed   bool     `json:"passed"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Score    float64  `json:"score"` // fraction of applicable checks passed
}

// ValidatedRecord pairs a record with its single ValidationResult.
type ValidatedRecord struct {
	Record CandidateRecord  `json:"record"`
	Result ValidationResult `json:"result"`
}
