// Package catalog maps receipt lines to canonical products.
package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// ProductStore is the read side of the product catalog.
type ProductStore interface {
	FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error)
}

// Lookup finds a product by barcode in an external source, creating it in the
// catalog when it is missing. Implementations must be idempotent per barcode.
type Lookup interface {
	FindOrFetchByBarcode(ctx context.Context, barcode string) (*entity.Product, error)
}

// Resolver turns an extracted item into a product, or nil when it cannot.
type Resolver struct {
	store  ProductStore
	lookup Lookup
	logger *slog.Logger
}

func NewResolver(store ProductStore, lookup Lookup, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, lookup: lookup, logger: logger}
}

// Resolve returns nil for items without a barcode and for every lookup
// failure; errors are logged, never returned.
func (r *Resolver) Resolve(ctx context.Context, item *entity.ExtractedItem) *entity.Product {
	if item == nil || item.Barcode == "" {
		return nil
	}
	log := r.logger.With("item_code", item.ItemCode, "barcode", item.Barcode)

	if p := r.find(ctx, item.Barcode, log); p != nil {
		return p
	}
	if r.lookup == nil {
		return nil
	}

	if _, err := r.lookup.FindOrFetchByBarcode(ctx, item.Barcode); err != nil {
		log.Warn("catalog.lookup_failed", "error", err)
		return nil
	}
	p := r.find(ctx, item.Barcode, log)
	if p == nil {
		log.Warn("catalog.missing_after_lookup")
	}
	return p
}

func (r *Resolver) find(ctx context.Context, barcode string, log *slog.Logger) *entity.Product {
	p, err := r.store.FindByBarcode(ctx, barcode)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			log.Error("catalog.store_error", "error", err)
		}
		return nil
	}
	return p
}
