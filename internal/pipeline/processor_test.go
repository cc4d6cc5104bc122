package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/chunker"
	"github.com/forjador/sku-pipeline/internal/classify"
	"github.com/forjador/sku-pipeline/internal/common"
	"github.com/forjador/sku-pipeline/internal/entity"
	"github.com/forjador/sku-pipeline/internal/features"
	"github.com/forjador/sku-pipeline/internal/llm"
	"github.com/forjador/sku-pipeline/internal/parser"
	"github.com/forjador/sku-pipeline/internal/quality"
	"github.com/forjador/sku-pipeline/internal/rules"
	"github.com/forjador/sku-pipeline/internal/validation"
)

type fakeExtractor struct {
	records func(req llm.ExtractRequest) []entity.CandidateRecord
	err     error
	calls   int
}

func (f *fakeExtractor) ExtractRecords(ctx context.Context, req llm.ExtractRequest) ([]entity.CandidateRecord, []byte, error) {
	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.records(req), nil, nil
}

func testProcessor(t *testing.T, ext llm.RecordExtractor) *Processor {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := rules.Load("../../configs/validation_rules.yaml")
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}

	registry := parser.Registry{}
	registry.Register(parser.NewTabularParser(logger))

	return NewProcessor(
		logger,
		features.NewExtractor(logger),
		classify.NewClassifier(store, logger),
		quality.NewGate(quality.DefaultThreshold, quality.DefaultWeights, registry, 0, logger),
		chunker.New(chunker.DefaultChunkSize, chunker.DefaultOverlap, chunker.DefaultTolerance, logger),
		ext,
		validation.NewEngine(store, logger),
	)
}

func writeOrderCSV(t *testing.T) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("item,material,classe,quantidade,unidade\n")
	for i := 1; i <= 25; i++ {
		fmt.Fprintf(&sb, "parafuso sextavado M8 x30,aco carbono,8.8,%d,UN\n", i*10)
	}
	path := filepath.Join(t.TempDir(), "pedido.csv")
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcessFileCSVHappyPath(t *testing.T) {
	good := entity.CandidateRecord{
		Tipo: "parafuso", Dimensao: "M8x30", Material: "aço carbono", Classe: "8.8",
		Quantidade: 100, Unidade: "UN", Descricao: "parafuso sextavado M8x30", Confidence: 0.95,
	}
	bad := good
	bad.Quantidade = 0

	ext := &fakeExtractor{records: func(req llm.ExtractRequest) []entity.CandidateRecord {
		return []entity.CandidateRecord{good, bad}
	}}

	res, err := testProcessor(t, ext).ProcessFile(context.Background(), writeOrderCSV(t))
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}

	if res.Classification.Tier != 1 {
		t.Errorf("tier = %d, want 1 for a simple csv", res.Classification.Tier)
	}
	if res.Metrics.GateState != constants.GateAccepted {
		t.Errorf("gate state = %v, want ACCEPTED", res.Metrics.GateState)
	}
	if res.Metrics.ParseAttempts != 1 {
		t.Errorf("parse attempts = %d, want 1 (primary accepted, no retries)", res.Metrics.ParseAttempts)
	}
	if res.Metrics.Chunks != 1 {
		t.Errorf("chunks = %d, want 1 for a short document", res.Metrics.Chunks)
	}
	if len(res.Accepted) != 1 || len(res.Rejected) != 1 {
		t.Errorf("accepted/rejected = %d/%d, want 1/1", len(res.Accepted), len(res.Rejected))
	}
	if len(res.Rejected) == 1 && res.Rejected[0].Record.Quantidade != 0 {
		t.Error("the rejected record is not the invalid one")
	}
	if ext.calls != 1 {
		t.Errorf("extractor calls = %d, want 1", ext.calls)
	}
}

func TestProcessFileExtractionFailureIsTolerated(t *testing.T) {
	ext := &fakeExtractor{err: errors.New("model unavailable")}

	res, err := testProcessor(t, ext).ProcessFile(context.Background(), writeOrderCSV(t))
	if err != nil {
		t.Fatalf("ProcessFile should tolerate chunk failures, got %v", err)
	}
	if res.Metrics.FailedChunks != res.Metrics.Chunks {
		t.Errorf("failed chunks = %d, want all %d", res.Metrics.FailedChunks, res.Metrics.Chunks)
	}
	if res.Metrics.Extracted != 0 {
		t.Errorf("extracted = %d, want 0", res.Metrics.Extracted)
	}
	if len(res.Warnings) == 0 {
		t.Error("chunk failures must surface as warnings")
	}
}

func TestProcessFileUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.docx")
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	ext := &fakeExtractor{records: func(llm.ExtractRequest) []entity.CandidateRecord { return nil }}
	_, err := testProcessor(t, ext).ProcessFile(context.Background(), path)
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
	if ext.calls != 0 {
		t.Error("extraction ran for an unsupported document")
	}
}

func TestProcessFileChunkIndexFlowsThrough(t *testing.T) {
	ext := &fakeExtractor{records: func(req llm.ExtractRequest) []entity.CandidateRecord {
		return []entity.CandidateRecord{{
			Tipo: "porca", Dimensao: "M8", Material: "aço carbono",
			Quantidade: 10, Unidade: "UN", Descricao: "porca M8",
			Confidence: 0.9, ChunkIndex: req.ChunkIndex,
		}}
	}}

	res, err := testProcessor(t, ext).ProcessFile(context.Background(), writeOrderCSV(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Accepted) != 1 {
		t.Fatalf("accepted = %d, want 1", len(res.Accepted))
	}
	if res.Accepted[0].Record.ChunkIndex != 0 {
		t.Errorf("chunk index = %d, want 0", res.Accepted[0].Record.ChunkIndex)
	}
}
