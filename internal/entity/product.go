package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the canonical catalog record a receipt line resolves to.
// Barcode is unique across products.
type Product struct {
	ID              uuid.UUID        `json:"id"`
	Barcode         string           `json:"barcode"`
	Name            string           `json:"name"`
	CategoryID      *uuid.UUID       `json:"category_id,omitempty"`
	CategoryName    string           `json:"category_name,omitempty"`
	Description     string           `json:"description,omitempty"`
	UnitOfMeasure   string           `json:"unit_of_measure,omitempty"`
	PackageQuantity *decimal.Decimal `json:"package_quantity,omitempty"`
	ImageURL        string           `json:"image_url,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
