package entity

import (
	"github.com/forjador/sku-pipeline/constants"
)

// DocumentFeatures is the fixed feature set computed once per document and
// consumed by the complexity classifier. Immutable after extraction.
type DocumentFeatures struct {
	Path           string               `json:"path"`
	Format         constants.FileFormat `json:"format"`
	FileSizeMB     float64              `json:"file_size_mb"`
	PageCount      int                  `json:"page_count"` // PDFs; 0 otherwise
	RowCount       int                  `json:"row_count"`  // CSV/XLSX/TXT; 0 otherwise
	HasText        bool                 `json:"has_text"`   // searchable text present
	TableScore     float64              `json:"table_score"` // 0..1 table-structure density
	ImageCount     int                  `json:"image_count"`
	ScanQuality    float64              `json:"scan_quality"`    // 0..1, 1 = clean digital
	HandwritingEst float64              `json:"handwriting_est"` // 0..1 likelihood
	TextDensity    float64              `json:"text_density"`    // printable chars / content size
}

// ParserChain is the resolved routing decision for a document: the primary
// backend plus the ordered fallbacks tried when the quality gate rejects.
type ParserChain struct {
	Primary   constants.ParserID   `json:"primary"`
	Fallbacks []constants.ParserID `json:"fallbacks"`
}

// All returns primary followed by fallbacks, in invocation order.
func (c ParserChain) All() []constants.ParserID {
	out := make([]constants.ParserID, 0, len(c.Fallbacks)+1)
	out = append(out, c.Primary)
	out = append(out, c.Fallbacks...)
	return out
}

// Classification is the tier assignment for a document. The chain is copied
// at classification time; a document's tier never changes across retries.
type Classification struct {
	Tier            int         `json:"tier"` // 1..11
	TierName        string      `json:"tier_name"`
	Chain           ParserChain `json:"chain"`
	ExpectedQuality float64     `json:"expected_quality"` // tier quality baseline
	AvgLatencyS     float64     `json:"avg_latency_s"`    // tier latency estimate
}

// ParseAttempt records one parser invocation. The full ordered attempt list
// is retained for diagnostics; only the chosen attempt feeds downstream.
type ParseAttempt struct {
	Index      int                `json:"index"`
	Parser     constants.ParserID `json:"parser"`
	Text       string             `json:"text"`
	Confidence float64            `json:"confidence"` // parser self-reported, 0..1
	Err        string             `json:"error,omitempty"`
	Score      QualityScore       `json:"score"`
}

// QualityScore is the weighted parse-quality breakdown for one attempt.
type QualityScore struct {
	Completeness float64 `json:"completeness"`
	Confidence   float64 `json:"confidence"`
	Structure    float64 `json:"structure"`
	Overall      float64 `json:"overall"`
}
