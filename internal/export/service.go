package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/strataspect/borelog/internal/entity"
)

// Service produces XLSX bytes for reviewed bore logs.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// LayersXLSX returns an XLSX workbook (as bytes) listing the layers of a
// single bore, top-down. The sheet mirrors the review table so reviewed
// output can round-trip through the same import path.
func (s *Service) LayersXLSX(sourceFile string, layers []entity.ExtractedLayer) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Bore Log"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	defaultSheet, _ := f.GetSheetIndex("Sheet1")
	if defaultSheet != -1 && defaultSheet != activeIndex {
		_ = f.DeleteSheet("Sheet1")
	}

	headers := []string{
		"Depth From (ft)",
		"Depth To (ft)",
		"Thickness (ft)",
		"Material",
		"Confidence",
		"Source",
		"Edited",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, l := range layers {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, l.StartDepth)
		write(2, l.EndDepth)
		write(3, l.Thickness())
		write(4, l.Material)
		write(5, string(l.Confidence))
		write(6, string(l.Source))
		if l.UserEdited {
			write(7, "yes")
		} else {
			write(7, "")
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "C", 14)
	_ = f.SetColWidth(sheet, "D", "D", 28)
	_ = f.SetColWidth(sheet, "E", "F", 14)
	_ = f.SetColWidth(sheet, "G", "G", 8)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"source_file", sourceFile,
		"rows", len(layers),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
