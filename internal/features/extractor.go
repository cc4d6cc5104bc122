// Package features computes document-level features for complexity
// classification. Extraction is a pure read of the file: no retries, no side
// effects. The caller routes failed documents to an error outcome.
package features

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/xuri/excelize/v2"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/common"
	"github.com/forjador/sku-pipeline/internal/entity"
)

const (
	// MaxFileSizeMB is the hard input limit; larger files are rejected.
	MaxFileSizeMB = 100.0
	// MaxLineCount bounds text inputs; longer documents are rejected.
	MaxLineCount = 5000
)

// Extractor reads files and produces DocumentFeatures.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract computes the feature set for one file. Fails with
// common.ErrUnsupportedFormat for unrecognized extensions and
// common.ErrCorruptFile when the content cannot be minimally parsed.
func (e *Extractor) Extract(path string) (entity.DocumentFeatures, error) {
	format := constants.MapExtToFormat(filepath.Ext(path))
	if format == "" {
		return entity.DocumentFeatures{}, common.NewAppError("UNSUPPORTED_FORMAT",
			fmt.Sprintf("%s: supported formats are %s", path, strings.Join(constants.SupportedFormats(), ", ")),
			common.ErrUnsupportedFormat)
	}

	info, err := os.Stat(path)
	if err != nil {
		return entity.DocumentFeatures{}, fmt.Errorf("stat %s: %w", path, err)
	}
	sizeMB := float64(info.Size()) / (1024 * 1024)
	if sizeMB > MaxFileSizeMB {
		return entity.DocumentFeatures{}, common.NewAppError("FILE_TOO_LARGE",
			fmt.Sprintf("%s: %.1f MB exceeds %.0f MB limit", path, sizeMB, MaxFileSizeMB),
			common.ErrInvalidInput)
	}

	f := entity.DocumentFeatures{
		Path:       path,
		Format:     format,
		FileSizeMB: sizeMB,
	}

	switch format {
	case constants.FormatCSV, constants.FormatTXT:
		err = e.textFeatures(path, format, &f)
	case constants.FormatXLSX:
		err = e.xlsxFeatures(path, &f)
	case constants.FormatPDF:
		err = e.pdfFeatures(path, &f)
	case constants.FormatPNG, constants.FormatJPG:
		err = e.imageFeatures(path, &f)
	}
	if err != nil {
		return entity.DocumentFeatures{}, err
	}

	e.logger.Debug("features.extracted",
		"path", path,
		"format", format,
		"size_mb", fmt.Sprintf("%.2f", sizeMB),
		"pages", f.PageCount,
		"rows", f.RowCount,
		"has_text", f.HasText,
	)
	return f, nil
}

func (e *Extractor) textFeatures(path string, format constants.FileFormat, f *entity.DocumentFeatures) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !isMostlyText(raw) {
		return common.NewAppError("CORRUPT_FILE",
			fmt.Sprintf("%s: content is not readable text", path), common.ErrCorruptFile)
	}

	lines := bytes.Count(raw, []byte{'\n'}) + 1
	if lines > MaxLineCount {
		return common.NewAppError("FILE_TOO_LARGE",
			fmt.Sprintf("%s: %d lines exceeds %d line limit", path, lines, MaxLineCount),
			common.ErrInvalidInput)
	}

	f.RowCount = lines
	f.HasText = len(bytes.TrimSpace(raw)) > 0
	f.TextDensity = printableRatio(raw)
	f.ScanQuality = 1.0 // born-digital text

	if format == constants.FormatCSV {
		f.TableScore = csvTableScore(raw)
	}
	return nil
}

func (e *Extractor) xlsxFeatures(path string, f *entity.DocumentFeatures) error {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return common.NewAppError("CORRUPT_FILE",
			fmt.Sprintf("%s: open workbook: %v", path, err), common.ErrCorruptFile)
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			e.logger.Warn("features.xlsx.close_error", "path", path, "error", cerr)
		}
	}()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return common.NewAppError("CORRUPT_FILE",
			fmt.Sprintf("%s: workbook has no sheets", path), common.ErrCorruptFile)
	}

	total := 0
	maxCols := 0
	for _, sheet := range sheets {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return common.NewAppError("CORRUPT_FILE",
				fmt.Sprintf("%s: read sheet %q: %v", path, sheet, err), common.ErrCorruptFile)
		}
		total += len(rows)
		for _, r := range rows {
			if len(r) > maxCols {
				maxCols = len(r)
			}
		}
	}
	if total > MaxLineCount {
		return common.NewAppError("FILE_TOO_LARGE",
			fmt.Sprintf("%s: %d rows exceeds %d row limit", path, total, MaxLineCount),
			common.ErrInvalidInput)
	}

	f.RowCount = total
	f.HasText = total > 0
	f.ScanQuality = 1.0
	f.TextDensity = 1.0
	if maxCols > 1 {
		f.TableScore = 1.0
	}
	return nil
}

func (e *Extractor) pdfFeatures(path string, f *entity.DocumentFeatures) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if !bytes.HasPrefix(raw, []byte("%PDF-")) {
		return common.NewAppError("CORRUPT_FILE",
			fmt.Sprintf("%s: missing PDF header", path), common.ErrCorruptFile)
	}

	count, err := api.PageCount(bytes.NewReader(raw), nil)
	if err != nil {
		return common.NewAppError("CORRUPT_FILE",
			fmt.Sprintf("%s: page count: %v", path, err), common.ErrCorruptFile)
	}
	f.PageCount = count

	// Cheap structural probe on the raw object stream. Font resources imply
	// searchable text; image XObjects imply scans or embedded figures.
	fontRefs := bytes.Count(raw, []byte("/Font"))
	imageRefs := bytes.Count(raw, []byte("/Subtype /Image")) + bytes.Count(raw, []byte("/Subtype/Image"))
	f.HasText = fontRefs > 0
	f.ImageCount = imageRefs
	f.TableScore = tableScoreFromStream(raw)
	f.TextDensity = printableRatio(raw)

	switch {
	case f.HasText && imageRefs == 0:
		f.ScanQuality = 1.0
	case f.HasText:
		f.ScanQuality = 0.9
	default:
		// Image-only PDF: estimate scan quality from bytes per page. Very
		// heavy pages usually mean high-resolution scans.
		perPageMB := f.FileSizeMB / float64(max(count, 1))
		if perPageMB >= 0.5 {
			f.ScanQuality = 0.7
		} else {
			f.ScanQuality = 0.4
		}
	}
	return nil
}

func (e *Extractor) imageFeatures(path string, f *entity.DocumentFeatures) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return common.NewAppError("CORRUPT_FILE",
			fmt.Sprintf("%s: decode image header: %v", path, err), common.ErrCorruptFile)
	}

	f.ImageCount = 1
	f.PageCount = 1
	f.HasText = false

	// Resolution-based scan quality: anything under ~1 MP is unlikely to OCR
	// cleanly.
	pixels := cfg.Width * cfg.Height
	switch {
	case pixels >= 4_000_000:
		f.ScanQuality = 0.9
	case pixels >= 1_000_000:
		f.ScanQuality = 0.7
	default:
		f.ScanQuality = 0.4
	}
	return nil
}

// isMostlyText reports whether raw looks like readable text rather than a
// binary blob with a text extension.
func isMostlyText(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	sample := raw
	if len(sample) > 8192 {
		sample = sample[:8192]
	}
	if bytes.IndexByte(sample, 0x00) >= 0 {
		return false
	}
	return printableRatio(sample) > 0.8
}

func printableRatio(raw []byte) float64 {
	if len(raw) == 0 {
		return 0
	}
	printable := 0
	total := 0
	for _, r := range string(raw) {
		total++
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(printable) / float64(total)
}

// csvTableScore measures how consistently delimited the rows are: 1.0 means
// every sampled row has the same column count.
func csvTableScore(raw []byte) float64 {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	counts := map[int]int{}
	rows := 0
	for rows < 200 {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0.3 // ragged quoting, still tabular-ish
		}
		counts[len(rec)]++
		rows++
	}
	if rows == 0 {
		return 0
	}
	mode := 0
	for _, c := range counts {
		if c > mode {
			mode = c
		}
	}
	return float64(mode) / float64(rows)
}

// tableScoreFromStream estimates table density from markdown-ish pipes and
// PDF table operators in the raw stream.
func tableScoreFromStream(raw []byte) float64 {
	pipes := bytes.Count(raw, []byte("|"))
	lines := bytes.Count(raw, []byte{'\n'}) + 1
	score := float64(pipes) / float64(lines*3)
	if score > 1 {
		score = 1
	}
	return score
}
