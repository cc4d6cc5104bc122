package parser

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/common"
)

// TabularParser is the in-process backend for CSV and spreadsheet inputs.
// It renders rows as a markdown table, which is the shape the extraction
// prompt and the structure scorer both expect.
type TabularParser struct {
	logger *slog.Logger
}

func NewTabularParser(logger *slog.Logger) *TabularParser {
	if logger == nil {
		logger = slog.Default()
	}
	return &TabularParser{logger: logger}
}

func (p *TabularParser) ID() constants.ParserID { return constants.ParserTabular }

func (p *TabularParser) Parse(ctx context.Context, path string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	var rows [][]string
	var err error
	switch constants.MapExtToFormat(filepath.Ext(path)) {
	case constants.FormatCSV, constants.FormatTXT:
		rows, err = p.readCSV(path)
	case constants.FormatXLSX:
		rows, err = p.readXLSX(path)
	default:
		err = common.NewAppError("PARSE_FAILURE",
			fmt.Sprintf("tabular parser cannot read %s", path), common.ErrParseFailure)
	}
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, common.NewAppError("PARSE_FAILURE",
			fmt.Sprintf("%s: no rows", path), common.ErrParseFailure)
	}

	text := renderMarkdownTable(rows)
	p.logger.Debug("parser.tabular.parsed", "path", path, "rows", len(rows), "text_len", len(text))

	// Confidence is high by construction: the rows came straight out of the
	// file format, not from layout analysis. Ragged rows lower it.
	confidence := 0.98
	if ragged(rows) {
		confidence = 0.85
	}
	return Result{Text: text, Confidence: confidence}, nil
}

func (p *TabularParser) readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, common.NewAppError("PARSE_FAILURE",
			fmt.Sprintf("%s: read csv: %v", path, err), common.ErrParseFailure)
	}
	return rows, nil
}

func (p *TabularParser) readXLSX(path string) ([][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, common.NewAppError("PARSE_FAILURE",
			fmt.Sprintf("%s: open workbook: %v", path, err), common.ErrParseFailure)
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			p.logger.Warn("parser.tabular.close_error", "path", path, "error", cerr)
		}
	}()

	var all [][]string
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return nil, common.NewAppError("PARSE_FAILURE",
				fmt.Sprintf("%s: read sheet %q: %v", path, sheet, err), common.ErrParseFailure)
		}
		all = append(all, rows...)
	}
	return all, nil
}

func renderMarkdownTable(rows [][]string) string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}

	var sb strings.Builder
	for i, row := range rows {
		sb.WriteString("| ")
		for c := 0; c < width; c++ {
			if c > 0 {
				sb.WriteString(" | ")
			}
			if c < len(row) {
				sb.WriteString(strings.TrimSpace(row[c]))
			}
		}
		sb.WriteString(" |\n")
		if i == 0 {
			sb.WriteString("|")
			sb.WriteString(strings.Repeat(" --- |", width))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func ragged(rows [][]string) bool {
	if len(rows) < 2 {
		return false
	}
	first := len(rows[0])
	for _, r := range rows[1:] {
		if len(r) != first {
			return true
		}
	}
	return false
}
