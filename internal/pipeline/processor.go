package processor

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/chunker"
	"github.com/forjador/sku-pipeline/internal/common"
	"github.com/forjador/sku-pipeline/internal/classify"
	"github.com/forjador/sku-pipeline/internal/entity"
	"github.com/forjador/sku-pipeline/internal/features"
	"github.com/forjador/sku-pipeline/internal/llm"
	"github.com/forjador/sku-pipeline/internal/quality"
	"github.com/forjador/sku-pipeline/internal/validation"
)

// maxConcurrentChunks bounds how many chunks are sent to the extraction
// model at once for a single document.
const maxConcurrentChunks = 4

// Processor coordinates the full document flow: feature extraction,
// complexity classification, the parse quality gate, chunking, record
// extraction, and validation.
type Processor struct {
	Logger     *slog.Logger
	Features   *features.Extractor
	Classifier *classify.Classifier
	Gate       *quality.Gate
	Chunker    *chunker.Chunker
	Extractor  llm.RecordExtractor
	Validator  *validation.Engine
}

func NewProcessor(
	logger *slog.Logger,
	feats *features.Extractor,
	cls *classify.Classifier,
	gate *quality.Gate,
	chk *chunker.Chunker,
	ext llm.RecordExtractor,
	val *validation.Engine,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:     logger,
		Features:   feats,
		Classifier: cls,
		Gate:       gate,
		Chunker:    chk,
		Extractor:  ext,
		Validator:  val,
	}
}

// Metrics summarizes one document run for logging and reporting.
type Metrics struct {
	Tier          int                 `json:"tier"`
	GateState     constants.GateState `json:"gate_state"`
	ParseAttempts int                 `json:"parse_attempts"`
	Chunks        int                 `json:"chunks"`
	FailedChunks  int                 `json:"failed_chunks"`
	Extracted     int                 `json:"extracted"`
	Accepted      int                 `json:"accepted"`
	Rejected      int                 `json:"rejected"`
	ElapsedMS     int64               `json:"elapsed_ms"`
}

// Result is the full outcome of processing one document.
type Result struct {
	Path           string                  `json:"path"`
	Features       entity.DocumentFeatures `json:"features"`
	Classification entity.Classification   `json:"classification"`
	Accepted       []entity.ValidatedRecord `json:"accepted"`
	Rejected       []entity.ValidatedRecord `json:"rejected"`
	Warnings       []string                `json:"warnings"`
	Metrics        Metrics                 `json:"metrics"`
}

// ProcessFile runs the full pipeline on one document. A chunk whose
// extraction fails contributes zero records and a warning; it never aborts
// the sibling chunks. Errors are returned only when no stage could produce
// usable output at all.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Result, error) {
	rid := uuid.New().String()
	ctx = common.WithRequestID(ctx, rid)
	start := time.Now()
	res := Result{Path: path}

	feats, err := p.Features.Extract(path)
	if err != nil {
		p.Logger.Error("processor.features.failed", "req_id", rid, "path", path, "err", err)
		return res, err
	}
	res.Features = feats
	p.Logger.Info("processor.features.ok",
		"req_id", rid,
		"file", filepath.Base(path),
		"format", feats.Format,
		"size_mb", feats.FileSizeMB,
		"pages", feats.PageCount,
	)

	cls, err := p.Classifier.Classify(feats)
	if err != nil {
		p.Logger.Error("processor.classify.failed", "req_id", rid, "path", path, "err", err)
		return res, err
	}
	res.Classification = cls
	res.Metrics.Tier = cls.Tier
	p.Logger.Info("processor.classify.ok",
		"req_id", rid,
		"tier", cls.Tier,
		"tier_name", cls.TierName,
		"primary", cls.Chain.Primary,
	)

	outcome, err := p.Gate.Run(ctx, path, cls)
	if err != nil {
		p.Logger.Error("processor.gate.failed", "req_id", rid, "path", path, "err", err)
		return res, err
	}
	res.Warnings = append(res.Warnings, outcome.Warnings...)
	res.Metrics.GateState = outcome.State
	res.Metrics.ParseAttempts = len(outcome.Attempts)
	content := outcome.Content()
	if content == "" {
		p.Logger.Error("processor.gate.no_content", "req_id", rid, "path", path, "state", outcome.State)
		return res, common.NewAppError("PARSE_FAILURE",
			fmt.Sprintf("no parser produced content for %s", filepath.Base(path)), common.ErrParseFailure)
	}
	p.Logger.Info("processor.gate.ok",
		"req_id", rid,
		"state", outcome.State,
		"attempts", len(outcome.Attempts),
		"content_len", len(content),
	)

	chunks := p.Chunker.Split(content)
	res.Metrics.Chunks = len(chunks)

	records, failed, warns := p.extractAll(ctx, rid, path, chunks)
	res.Warnings = append(res.Warnings, warns...)
	res.Metrics.FailedChunks = failed
	res.Metrics.Extracted = len(records)
	if err := ctx.Err(); err != nil {
		return res, err
	}

	validated, err := p.Validator.ValidateBatch(ctx, records)
	if err != nil {
		p.Logger.Error("processor.validate.failed", "req_id", rid, "path", path, "err", err)
		return res, err
	}
	for _, v := range validated {
		if v.Result.Passed {
			res.Accepted = append(res.Accepted, v)
		} else {
			res.Rejected = append(res.Rejected, v)
		}
	}
	res.Metrics.Accepted = len(res.Accepted)
	res.Metrics.Rejected = len(res.Rejected)
	res.Metrics.ElapsedMS = time.Since(start).Milliseconds()

	p.Logger.Info("processor.done",
		"req_id", rid,
		"file", filepath.Base(path),
		"tier", res.Metrics.Tier,
		"chunks", res.Metrics.Chunks,
		"extracted", res.Metrics.Extracted,
		"accepted", res.Metrics.Accepted,
		"rejected", res.Metrics.Rejected,
		"elapsed_ms", res.Metrics.ElapsedMS,
	)
	return res, nil
}

// extractAll fans chunks out to the extraction model and merges the results
// back in chunk order. Failures are collected as warnings, not errors.
func (p *Processor) extractAll(ctx context.Context, rid, path string, chunks []entity.Chunk) ([]entity.CandidateRecord, int, []string) {
	perChunk := make([][]entity.CandidateRecord, len(chunks))
	errsByChunk := make([]error, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChunks)
	for i, ch := range chunks {
		i, ch := i, ch
		g.Go(func() error {
			recs, _, err := p.Extractor.ExtractRecords(gctx, llm.ExtractRequest{
				ChunkText:    ch.Content,
				ChunkIndex:   ch.Index,
				SourceFile:   path,
				FilenameHint: filepath.Base(path),
			})
			if err != nil {
				errsByChunk[i] = err
				p.Logger.Warn("processor.extract.chunk_failed",
					"req_id", rid, "chunk", ch.Index, "err", err)
				return nil
			}
			perChunk[i] = recs
			return nil
		})
	}
	_ = g.Wait()

	var (
		merged   []entity.CandidateRecord
		failed   int
		warnings []string
	)
	for i := range chunks {
		if errsByChunk[i] != nil {
			failed++
			warnings = append(warnings, fmt.Sprintf("chunk %d of %s: extraction failed: %v",
				chunks[i].Index, filepath.Base(path), errsByChunk[i]))
			continue
		}
		merged = append(merged, perChunk[i]...)
	}
	return merged, failed, warnings
}
