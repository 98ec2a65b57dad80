package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleExtraction is the structured content the vision model read off a receipt.
type SaleExtraction struct {
	SaleDateRaw string           `json:"sale_date"`
	SaleDate    time.Time        `json:"-"`
	Items       []*ExtractedItem `json:"items"`
}

// ExtractedItem is a single receipt line. An empty Barcode means the model
// found none. ExtractedTotal keeps the model's figure when TotalPrice is
// corrected during reconciliation.
type ExtractedItem struct {
	ItemCode       string          `json:"item_code"`
	Barcode        string          `json:"barcode,omitempty"`
	Name           string          `json:"name"`
	Quantity       decimal.Decimal `json:"quantity"`
	UnitOfMeasure  string          `json:"unit_of_measure"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Discount       decimal.Decimal `json:"discount"`
	ExtractedTotal decimal.Decimal `json:"extracted_total"`
}
