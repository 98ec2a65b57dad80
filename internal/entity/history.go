package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseHistoryRecord is one accepted receipt line, persisted. Records are
// immutable once written.
type PurchaseHistoryRecord struct {
	ID           uuid.UUID       `json:"id"`
	UploaderID   uuid.UUID       `json:"uploader_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     decimal.Decimal `json:"quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Discount     decimal.Decimal `json:"discount"`
	PurchaseDate time.Time       `json:"purchase_date"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PurchaseHistoryRow is a history record joined with its product for listing
// and export.
type PurchaseHistoryRow struct {
	PurchaseHistoryRecord
	Barcode      string `json:"barcode"`
	ProductName  string `json:"product_name"`
	CategoryName string `json:"category_name"`
}
