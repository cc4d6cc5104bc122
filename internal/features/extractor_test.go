package features

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forjador/sku-pipeline/constants"
	"github.com/forjador/sku-pipeline/internal/common"
)

func testExtractor() *Extractor {
	return NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractCSV(t *testing.T) {
	content := "item,dimensao,quantidade\nparafuso M8x30,M8x30,100\nporca M8,M8,200\n"
	path := writeFile(t, "order.csv", []byte(content))

	f, err := testExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if f.Format != constants.FormatCSV {
		t.Errorf("format = %q, want csv", f.Format)
	}
	if !f.HasText {
		t.Error("csv with content should report HasText")
	}
	if f.RowCount != 4 {
		t.Errorf("rows = %d, want 4", f.RowCount)
	}
	if f.TableScore != 1.0 {
		t.Errorf("table score = %v, want 1.0 for consistent columns", f.TableScore)
	}
	if f.ScanQuality != 1.0 {
		t.Errorf("scan quality = %v, want 1.0 for born-digital text", f.ScanQuality)
	}
}

func TestExtractRaggedCSV(t *testing.T) {
	content := "a,b,c\n1,2\nx\n1,2,3\n1,2,3\n"
	path := writeFile(t, "ragged.csv", []byte(content))

	f, err := testExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if f.TableScore >= 1.0 {
		t.Errorf("table score = %v, want below 1.0 for ragged rows", f.TableScore)
	}
	if f.TableScore <= 0 {
		t.Errorf("table score = %v, want above 0", f.TableScore)
	}
}

func TestExtractTxt(t *testing.T) {
	path := writeFile(t, "note.txt", []byte("pedido de compra\nparafuso M8\n"))

	f, err := testExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if f.Format != constants.FormatTXT {
		t.Errorf("format = %q, want txt", f.Format)
	}
	if f.TableScore != 0 {
		t.Errorf("txt table score = %v, want 0", f.TableScore)
	}
	if f.TextDensity <= 0.9 {
		t.Errorf("text density = %v, want near 1", f.TextDensity)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "order.docx", []byte("whatever"))

	_, err := testExtractor().Extract(path)
	if err == nil {
		t.Fatal("expected unsupported-format error")
	}
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestExtractBinaryMasqueradingAsText(t *testing.T) {
	raw := make([]byte, 512)
	for i := range raw {
		raw[i] = byte(i % 7)
	}
	path := writeFile(t, "binary.txt", raw)

	_, err := testExtractor().Extract(path)
	if err == nil {
		t.Fatal("expected corrupt-file error")
	}
	if !errors.Is(err, common.ErrCorruptFile) {
		t.Errorf("error = %v, want ErrCorruptFile", err)
	}
}

func TestExtractTruncatedPDF(t *testing.T) {
	path := writeFile(t, "broken.pdf", []byte("not a pdf at all"))

	_, err := testExtractor().Extract(path)
	if err == nil {
		t.Fatal("expected corrupt-file error")
	}
	if !errors.Is(err, common.ErrCorruptFile) {
		t.Errorf("error = %v, want ErrCorruptFile", err)
	}
}

func TestExtractLineLimit(t *testing.T) {
	content := strings.Repeat("linha de texto\n", MaxLineCount+10)
	path := writeFile(t, "huge.txt", []byte(content))

	_, err := testExtractor().Extract(path)
	if err == nil {
		t.Fatal("expected line-limit error")
	}
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestExtractMissingFile(t *testing.T) {
	if _, err := testExtractor().Extract(filepath.Join(t.TempDir(), "gone.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
