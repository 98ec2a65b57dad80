// Package export renders purchase history as spreadsheets.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/repository"
)

// SheetName is the worksheet holding exported history rows.
const SheetName = "Purchases"

// Headers are the column titles of the export, in order.
var Headers = []string{
	"Purchase Date",
	"Barcode",
	"Product",
	"Category",
	"Quantity",
	"Unit Price",
	"Discount",
	"Total",
}

// HistoryLister is the read side the export needs.
type HistoryLister interface {
	ListByUploader(ctx context.Context, filter repository.HistoryFilter) ([]entity.PurchaseHistoryRow, error)
}

// Service is a tiny façade over repositories that produces XLSX bytes for exports.
type Service struct {
	history HistoryLister
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(history HistoryLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{history: history, logger: logger, now: time.Now}
}

// ExportHistoryXLSX returns an XLSX workbook (as bytes) for the given uploader and date window.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all purchases of the uploader.
func (s *Service) ExportHistoryXLSX(ctx context.Context, uploaderID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	filter := repository.HistoryFilter{UploaderID: uploaderID}
	if from != nil {
		filter.From = dateOnly(*from)
		filter.To = dateOnly(s.now().UTC())
	}
	if to != nil {
		filter.To = dateOnly(*to)
	}

	rows, err := s.history.ListByUploader(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query purchase history: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(SheetName, "A1", "H1", style)
	}
	money, _ := f.NewStyle(&excelize.Style{NumFmt: 2}) // 0.00

	row := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SheetName, cell, v)
		}
		write(1, r.PurchaseDate.Format("2006-01-02"))
		write(2, r.Barcode)
		write(3, truncate(r.ProductName, 140))
		write(4, r.CategoryName)
		write(5, r.Quantity.InexactFloat64())
		write(6, r.UnitPrice.InexactFloat64())
		write(7, r.Discount.InexactFloat64())
		write(8, r.TotalPrice.InexactFloat64())
		row++
	}

	if len(rows) > 0 {
		totalCell, _ := excelize.CoordinatesToCellName(8, row)
		labelCell, _ := excelize.CoordinatesToCellName(7, row)
		_ = f.SetCellValue(SheetName, labelCell, "Total")
		_ = f.SetCellFormula(SheetName, totalCell, fmt.Sprintf("SUM(H2:H%d)", row-1))
		last, _ := excelize.CoordinatesToCellName(8, row)
		_ = f.SetCellStyle(SheetName, "F2", last, money)
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetName, "A", "A", 14) // date
	_ = f.SetColWidth(SheetName, "B", "B", 16) // barcode
	_ = f.SetColWidth(SheetName, "C", "C", 40) // product
	_ = f.SetColWidth(SheetName, "D", "D", 22) // category
	_ = f.SetColWidth(SheetName, "E", "H", 12) // numbers

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"uploader_id", uploaderID.String(),
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
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
