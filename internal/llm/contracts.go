package llm

import (
	"context"

	"github.com/forjador/sku-pipeline/internal/entity"
)

// ExtractRequest carries one chunk of parsed content to the extraction model.
type ExtractRequest struct {
	ChunkText    string
	ChunkIndex   int
	SourceFile   string
	FilenameHint string
}

// RecordExtractor is the interface the pipeline depends on. A request yields
// zero or more candidate records; an error fails only that chunk, never the
// sibling chunks.
type RecordExtractor interface {
	ExtractRecords(ctx context.Context, req ExtractRequest) ([]entity.CandidateRecord, []byte /*rawJSON*/, error)
}
