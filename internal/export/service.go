package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/forjador/sku-pipeline/internal/entity"
)

// Service produces XLSX bytes for extraction results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var recordHeaders = []string{
	"Tipo",
	"Dimensão",
	"Material",
	"Classe",
	"Quantidade",
	"Unidade",
	"Revestimento",
	"Norma",
	"Confiança",
	"Descrição Original",
	"Chunk",
	"Observações",
}

// ExportRecordsXLSX returns an XLSX workbook (as bytes) with accepted records
// on one sheet and rejected records, annotated with their validation errors,
// on another.
func (s *Service) ExportRecordsXLSX(accepted, rejected []entity.ValidatedRecord) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()

	const acceptedSheet = "Aceitos"
	const rejectedSheet = "Rejeitados"

	// excelize creates "Sheet1" by default; rename it for the first sheet.
	if err := f.SetSheetName("Sheet1", acceptedSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(rejectedSheet); err != nil {
		return nil, err
	}
	if idx, _ := f.GetSheetIndex(acceptedSheet); idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := s.writeSheet(f, acceptedSheet, accepted); err != nil {
		return nil, err
	}
	if err := s.writeSheet(f, rejectedSheet, rejected); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"accepted", len(accepted),
		"rejected", len(rejected),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func (s *Service) writeSheet(f *excelize.File, sheet string, recs []entity.ValidatedRecord) error {
	for i, h := range recordHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, v := range recs {
		r := v.Record

		notes := strings.Join(v.Result.Errors, "; ")
		if len(v.Result.Warnings) > 0 {
			if notes != "" {
				notes += " | "
			}
			notes += "avisos: " + strings.Join(v.Result.Warnings, "; ")
		}

		write := func(col int, val any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, val)
		}

		write(1, r.Tipo)
		write(2, r.Dimensao)
		write(3, r.Material)
		write(4, r.Classe)
		write(5, r.Quantidade)
		write(6, r.Unidade)
		write(7, r.Coating)
		write(8, r.Norma)
		write(9, r.Confidence)
		write(10, truncate(r.Descricao, 200))
		write(11, r.ChunkIndex)
		write(12, truncate(notes, 300))

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 16)
	_ = f.SetColWidth(sheet, "B", "B", 14)
	_ = f.SetColWidth(sheet, "C", "C", 18)
	_ = f.SetColWidth(sheet, "D", "D", 10)
	_ = f.SetColWidth(sheet, "E", "F", 12)
	_ = f.SetColWidth(sheet, "G", "H", 14)
	_ = f.SetColWidth(sheet, "I", "I", 10)
	_ = f.SetColWidth(sheet, "J", "J", 48)
	_ = f.SetColWidth(sheet, "L", "L", 50)
	return nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
