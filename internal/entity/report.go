package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-ledger/constants"
)

// ProcessingReport is the single outcome of a pipeline run.
type ProcessingReport struct {
	Success          bool                  `json:"success"`
	Message          string                `json:"message"`
	FailureKind      constants.FailureKind `json:"failure_kind,omitempty"`
	ProcessedCount   int                   `json:"processed_count"`
	SkippedCount     int                   `json:"skipped_count"`
	Errors           []string              `json:"errors"`
	CreatedRecordIDs []uuid.UUID           `json:"created_record_ids"`
	Skips            []ItemSkip            `json:"skips"`
	Corrections      []TotalCorrection     `json:"corrections"`
}

// ItemSkip records why a line did not become a history record.
type ItemSkip struct {
	Index     int                  `json:"index"`
	ItemCode  string               `json:"item_code"`
	Barcode   string               `json:"barcode,omitempty"`
	Name      string               `json:"name"`
	Reason    constants.SkipReason `json:"reason"`
	ProductID *uuid.UUID           `json:"product_id,omitempty"`
}

// TotalCorrection records a line total replaced by reconciliation.
type TotalCorrection struct {
	Index     int             `json:"index"`
	ItemCode  string          `json:"item_code"`
	Barcode   string          `json:"barcode,omitempty"`
	Extracted decimal.Decimal `json:"extracted"`
	Corrected decimal.Decimal `json:"corrected"`
}
