package usecase

import (
	"context"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/powerwolf1/bigData/domain/repository"
	"github.com/powerwolf1/bigData/pkg/logging"
	"github.com/powerwolf1/bigData/pkg/metrics"
)

// ExportUsecase renders the aggregated collection as XLSX workbooks for
// the reporting side.
type ExportUsecase struct {
	aggregates repository.AggregateRepository
	logger     *logging.Logger
	metrics    *metrics.Collector
}

// NewExportUsecase creates the export service.
func NewExportUsecase(aggregates repository.AggregateRepository, logger *logging.Logger, collector *metrics.Collector) *ExportUsecase {
	return &ExportUsecase{
		aggregates: aggregates,
		logger:     logger.WithComponent("export"),
		metrics:    collector,
	}
}

// ExportAggregatesXLSX returns an XLSX workbook of aggregate records in
// the given date window. Nil bounds leave that side open.
func (u *ExportUsecase) ExportAggregatesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	records, err := u.aggregates.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	const sheet = "Aggregated"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"CUI",
		"NUI",
		"Date",
		"Z Sequence",
		"Receipt Number",
		"Product",
		"Quantity",
		"Value",
		"VAT Rate",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range records {
		write := func(col int, v interface{}) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.TaxCode)
		write(2, r.DeviceID)
		write(3, r.Date)
		write(4, r.SequenceNumber)
		write(5, r.ReceiptNumber)
		write(6, r.Product.Name)
		write(7, r.Product.Quantity)
		write(8, r.Product.Value)
		write(9, r.Product.TaxRate)
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	u.logger.Info("Exported aggregate records",
		logging.Int("rows", row-2),
		logging.Duration("duration", time.Since(start)))

	return buf.Bytes(), nil
}
