package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// HistoryFilter narrows ListByUploader. Zero From/To are open bounds; both are inclusive dates.
type HistoryFilter struct {
	UploaderID uuid.UUID
	From       time.Time
	To         time.Time
}

type HistoryRepository interface {
	// CreateBatch writes every record or none of them.
	CreateBatch(ctx context.Context, records []entity.PurchaseHistoryRecord) error
	ListByUploader(ctx context.Context, filter HistoryFilter) ([]entity.PurchaseHistoryRow, error)
}

type historyRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewHistoryRepository(db *DB, logger *slog.Logger) HistoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &historyRepository{db: db, logger: logger}
}

func (r *historyRepository) CreateBatch(ctx context.Context, records []entity.PurchaseHistoryRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Driver.Tx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("history.batch.rollback_failed", "error", rbErr)
			}
			r.logger.Warn("history.batch.rolled_back", "records", len(records), "error", err)
		}
	}()

	b := entsql.Dialect(r.db.Dialect())
	for i := range records {
		rec := &records[i]
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		ins := b.Insert("purchase_history").
			Columns("id", "uploader_id", "product_id", "unit_price", "quantity", "total_price", "discount", "purchase_date", "created_at").
			Values(rec.ID, rec.UploaderID, rec.ProductID, rec.UnitPrice, rec.Quantity, rec.TotalPrice, rec.Discount,
				rec.PurchaseDate.Format(dateLayout), rec.CreatedAt)
		if err = exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("insert history record %d (product %s): %w", i, rec.ProductID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	r.logger.Info("history.batch.committed", "records", len(records))
	return nil
}

func (r *historyRepository) ListByUploader(ctx context.Context, filter HistoryFilter) ([]entity.PurchaseHistoryRow, error) {
	b := entsql.Dialect(r.db.Dialect())
	h := b.Table("purchase_history").As("h")
	p := b.Table("products").As("p")
	c := b.Table("categories").As("c")

	preds := []*entsql.Predicate{entsql.EQ(h.C("uploader_id"), filter.UploaderID)}
	if !filter.From.IsZero() {
		preds = append(preds, entsql.GTE(h.C("purchase_date"), filter.From.Format(dateLayout)))
	}
	if !filter.To.IsZero() {
		preds = append(preds, entsql.LTE(h.C("purchase_date"), filter.To.Format(dateLayout)))
	}

	sel := b.Select(
		h.C("id"), h.C("uploader_id"), h.C("product_id"), h.C("unit_price"), h.C("quantity"),
		h.C("total_price"), h.C("discount"), h.C("purchase_date"), h.C("created_at"),
		p.C("barcode"), p.C("name"), c.C("name"),
	).
		From(h).
		Join(p).On(h.C("product_id"), p.C("id")).
		LeftJoin(c).On(p.C("category_id"), c.C("id")).
		Where(entsql.And(preds...)).
		OrderBy(h.C("purchase_date"), h.C("id"))

	var out []entity.PurchaseHistoryRow
	err := query(ctx, r.db.Driver, sel, func(rows *entsql.Rows) error {
		var (
			row              entity.PurchaseHistoryRow
			date, created    any
			barcode, catName *string
		)
		if err := rows.Scan(&row.ID, &row.UploaderID, &row.ProductID, &row.UnitPrice, &row.Quantity,
			&row.TotalPrice, &row.Discount, &date, &created, &barcode, &row.ProductName, &catName); err != nil {
			return err
		}
		d, err := timeValue(date)
		if err != nil {
			return err
		}
		row.PurchaseDate = dateOnly(d)
		if row.CreatedAt, err = timeValue(created); err != nil {
			return err
		}
		if barcode != nil {
			row.Barcode = *barcode
		}
		if catName != nil {
			row.CategoryName = *catName
		}
		out = append(out, row)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to list purchase history", "uploader_id", filter.UploaderID, "error", err)
		return nil, err
	}
	return out, nil
}
