package export

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/forjador/sku-pipeline/internal/entity"
)

func record(tipo, dim string, qty int) entity.ValidatedRecord {
	return entity.ValidatedRecord{
		Record: entity.CandidateRecord{
			Tipo: tipo, Dimensao: dim, Material: "aço carbono", Classe: "8.8",
			Quantidade: qty, Unidade: "UN", Descricao: tipo + " " + dim, Confidence: 0.9,
		},
		Result: entity.ValidationResult{Passed: true, Score: 1},
	}
}

func TestExportRecordsXLSX(t *testing.T) {
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))

	accepted := []entity.ValidatedRecord{
		record("parafuso", "M8x30", 100),
		record("porca", "M8", 200),
	}
	rejected := []entity.ValidatedRecord{
		{
			Record: entity.CandidateRecord{
				Tipo: "arruela", Dimensao: "XXL", Material: "plástico",
				Quantidade: 5, Unidade: "UN", Descricao: "arruela XXL", Confidence: 0.4,
			},
			Result: entity.ValidationResult{
				Passed: false,
				Errors: []string{"dimensão não corresponde a nenhum padrão"},
			},
		},
	}

	raw, err := svc.ExportRecordsXLSX(accepted, rejected)
	if err != nil {
		t.Fatalf("ExportRecordsXLSX: %v", err)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer wb.Close()

	acceptedRows, err := wb.GetRows("Aceitos")
	if err != nil {
		t.Fatal(err)
	}
	if len(acceptedRows) != 3 {
		t.Fatalf("accepted rows = %d, want header + 2", len(acceptedRows))
	}
	if acceptedRows[0][0] != "Tipo" {
		t.Errorf("header = %q, want Tipo", acceptedRows[0][0])
	}
	if acceptedRows[1][0] != "parafuso" || acceptedRows[2][0] != "porca" {
		t.Errorf("record order not preserved: %v %v", acceptedRows[1][0], acceptedRows[2][0])
	}

	rejectedRows, err := wb.GetRows("Rejeitados")
	if err != nil {
		t.Fatal(err)
	}
	if len(rejectedRows) != 2 {
		t.Fatalf("rejected rows = %d, want header + 1", len(rejectedRows))
	}
	notes := rejectedRows[1][len(rejectedRows[1])-1]
	if notes == "" {
		t.Error("rejected row should carry its validation errors")
	}
}

func TestExportEmptyResultStillProducesWorkbook(t *testing.T) {
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)))
	raw, err := svc.ExportRecordsXLSX(nil, nil)
	if err != nil {
		t.Fatalf("ExportRecordsXLSX: %v", err)
	}
	wb, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer wb.Close()
	for _, sheet := range []string{"Aceitos", "Rejeitados"} {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			t.Fatalf("sheet %s: %v", sheet, err)
		}
		if len(rows) != 1 {
			t.Errorf("sheet %s rows = %d, want header only", sheet, len(rows))
		}
	}
}
