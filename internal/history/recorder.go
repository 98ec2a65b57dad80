// Package history writes purchase-history records for accepted receipt lines.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/reconcile"
)

// Store persists a batch of records atomically.
type Store interface {
	CreateBatch(ctx context.Context, records []entity.PurchaseHistoryRecord) error
}

// Accepted pairs an extracted line with the product it resolved to.
type Accepted struct {
	Item    *entity.ExtractedItem
	Product *entity.Product
}

type Recorder struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// BuildRecords turns accepted lines into records, ids in input order.
func (r *Recorder) BuildRecords(accepted []Accepted, uploaderID uuid.UUID, purchaseDate time.Time) ([]entity.PurchaseHistoryRecord, error) {
	y, m, d := purchaseDate.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	created := r.now().UTC()

	records := make([]entity.PurchaseHistoryRecord, 0, len(accepted))
	for _, a := range accepted {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate record id: %w", err)
		}
		records = append(records, entity.PurchaseHistoryRecord{
			ID:           id,
			UploaderID:   uploaderID,
			ProductID:    a.Product.ID,
			UnitPrice:    a.Item.UnitPrice,
			Quantity:     a.Item.Quantity,
			// Truncated to 2 decimals, matching the reconciled total.
			TotalPrice:   reconcile.ExpectedTotal(a.Item),
			Discount:     a.Item.Discount,
			PurchaseDate: day,
			CreatedAt:    created,
		})
	}
	return records, nil
}

// RecordAll writes one record per accepted line in a single transaction and
// returns their ids in input order. On any error nothing is written and the
// error is a *common.AppError with code PERSISTENCE_ERROR.
func (r *Recorder) RecordAll(ctx context.Context, accepted []Accepted, uploaderID uuid.UUID, purchaseDate time.Time) ([]uuid.UUID, error) {
	if len(accepted) == 0 {
		return nil, nil
	}

	records, err := r.BuildRecords(accepted, uploaderID, purchaseDate)
	if err != nil {
		return nil, common.NewAppError(common.CodePersistence, "build history records", err)
	}

	if err := r.store.CreateBatch(ctx, records); err != nil {
		r.logger.Error("history.record.failed",
			"uploader_id", uploaderID,
			"records", len(records),
			"error", err,
		)
		return nil, common.NewAppError(common.CodePersistence, "persist purchase history", err)
	}

	ids := make([]uuid.UUID, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}
	r.logger.Info("history.record.ok", "uploader_id", uploaderID, "records", len(ids))
	return ids, nil
}
