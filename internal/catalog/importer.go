package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/receipt-ledger/internal/catalog/openfoodfacts"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/repository"
)

// ProductSource fetches product data from an external catalog.
type ProductSource interface {
	GetProduct(ctx context.Context, barcode string) (*openfoodfacts.Product, error)
}

// Importer is the Lookup backed by Open Food Facts and the product tables.
type Importer struct {
	source     ProductSource
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

func NewImporter(source ProductSource, products repository.ProductRepository, categories repository.CategoryRepository, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{source: source, products: products, categories: categories, logger: logger}
}

// FindOrFetchByBarcode returns the stored product for barcode, importing it
// from the external catalog first when it is not stored yet. An existing
// product is never modified.
func (i *Importer) FindOrFetchByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	if p, err := i.products.FindByBarcode(ctx, barcode); err == nil {
		return p, nil
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	off, err := i.source.GetProduct(ctx, barcode)
	if err != nil {
		if errors.Is(err, openfoodfacts.ErrProductNotFound) {
			return nil, fmt.Errorf("barcode %s: %w", barcode, common.ErrNotFound)
		}
		if errors.Is(err, openfoodfacts.ErrInvalidBarcode) {
			return nil, fmt.Errorf("barcode %s: %w", barcode, common.ErrInvalidInput)
		}
		return nil, fmt.Errorf("barcode %s: %w: %v", barcode, common.ErrUpstream, err)
	}

	draft := MapProduct(barcode, off)
	if !draft.QuantityOK {
		i.logger.Warn("catalog.import.quantity_unparsed", "barcode", barcode, "quantity", off.Quantity)
	}

	product := draft.Product
	if cat, err := i.categories.FindOrCreate(ctx, draft.CategoryName); err != nil {
		// Import without a category.
		i.logger.Error("catalog.import.category_failed", "barcode", barcode, "category", draft.CategoryName, "error", err)
	} else {
		product.CategoryID = &cat.ID
	}

	stored, created, err := i.products.CreateIfAbsent(ctx, &product)
	if err != nil {
		return nil, fmt.Errorf("store product %s: %w", barcode, err)
	}
	i.logger.Info("catalog.import.ok",
		"barcode", barcode,
		"product_id", stored.ID,
		"name", stored.Name,
		"category", stored.CategoryName,
		"created", created,
	)
	return stored, nil
}
