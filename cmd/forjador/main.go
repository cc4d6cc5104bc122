package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/chunker"
	"github.com/forjador/sku-pipeline/internal/classify"
	"github.com/forjador/sku-pipeline/internal/common"
	"github.com/forjador/sku-pipeline/internal/entity"
	"github.com/forjador/sku-pipeline/internal/export"
	"github.com/forjador/sku-pipeline/internal/features"
	"github.com/forjador/sku-pipeline/internal/llm/openai"
	"github.com/forjador/sku-pipeline/internal/parser"
	processor "github.com/forjador/sku-pipeline/internal/pipeline"
	"github.com/forjador/sku-pipeline/internal/quality"
	"github.com/forjador/sku-pipeline/internal/rules"
	"github.com/forjador/sku-pipeline/internal/validation"
)

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out     = flag.String("out", "", "output XLSX file path (optional; default <first input dir>/sku_records.xlsx)")
		summary = flag.Bool("summary", false, "print a JSON summary of each document to stdout")
		debug   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if flag.NArg() == 0 {
		printError("Usage: forjador [flags] <document> [<document> ...]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// .env is optional; real env vars win.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	store, err := rules.Load(cfg.Rules.Path)
	if err != nil {
		logger.Error("failed to load rule store", "path", cfg.Rules.Path, "error", err)
		os.Exit(1)
	}
	logger.Info("rule store loaded", "path", cfg.Rules.Path, "rules", store.String())

	registry := parser.Registry{}
	registry.Register(parser.NewTabularParser(logger))
	if cfg.Parsers.StructuredURL != "" {
		registry.Register(parser.NewHTTPParser(constants.ParserStructured, cfg.Parsers.StructuredURL, cfg.Parsers.Timeout, logger))
	} else {
		logger.Warn("PARSER_STRUCTURED_URL not set, structured parsing unavailable")
	}
	if cfg.Parsers.VisionURL != "" {
		registry.Register(parser.NewHTTPParser(constants.ParserVision, cfg.Parsers.VisionURL, cfg.Parsers.Timeout, logger))
	} else {
		logger.Warn("PARSER_VISION_URL not set, vision parsing unavailable")
	}

	if cfg.LLM.APIKey == "" {
		logger.Error("OPENAI_API_KEY is required for record extraction")
		os.Exit(1)
	}
	extractor := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	weights := quality.Weights{
		Completeness: cfg.Quality.CompletenessWeight,
		Confidence:   cfg.Quality.ConfidenceWeight,
		Structure:    cfg.Quality.StructureWeight,
	}

	proc := processor.NewProcessor(
		logger,
		features.NewExtractor(logger),
		classify.NewClassifier(store, logger),
		quality.NewGate(cfg.Quality.Threshold, weights, registry, cfg.Quality.RetryTimeout, logger),
		chunker.New(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap, cfg.Chunking.BoundaryTolerance, logger),
		extractor,
		validation.NewEngine(store, logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter := export.NewService(logger)

	var (
		accepted, rejected []entity.ValidatedRecord
		processed          int
		failures           int
	)
	for _, path := range flag.Args() {
		res, err := proc.ProcessFile(ctx, path)
		if err != nil {
			logger.Error("failed to process document", "path", path, "error", err)
			failures++
			continue
		}
		processed++
		accepted = append(accepted, res.Accepted...)
		rejected = append(rejected, res.Rejected...)

		if *summary {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				logger.Warn("failed to encode summary", "path", path, "error", err)
			}
		}
	}

	if processed == 0 {
		printError("No documents could be processed (%d failures)\n", failures)
		os.Exit(1)
	}

	if *out == "" {
		*out = filepath.Join(filepath.Dir(flag.Arg(0)), "sku_records.xlsx")
	}
	xlsxBytes, err := exporter.ExportRecordsXLSX(accepted, rejected)
	if err != nil {
		logger.Error("failed to export records", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("run complete",
		"documents_processed", processed,
		"failures", failures,
		"accepted", len(accepted),
		"rejected", len(rejected),
		"output_file", *out,
	)

	fmt.Printf("Processing complete!\n")
	fmt.Printf("- Documents processed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Records accepted: %d\n", len(accepted))
	fmt.Printf("- Records rejected: %d\n", len(rejected))
	fmt.Printf("- Output: %s\n", *out)
}
