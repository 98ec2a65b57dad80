package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/history"
	"github.com/joseph-ayodele/receipt-ledger/internal/recipes"
)

// Extractor reads a sale off a receipt image (extract.Client).
type Extractor interface {
	Extract(ctx context.Context, img entity.Image) (*entity.SaleExtraction, error)
}

// Reconciler fixes line totals in place (reconcile.Reconciler).
type Reconciler interface {
	Reconcile(items []*entity.ExtractedItem) []entity.TotalCorrection
}

// ProductResolver maps a line to a catalog product, nil when it cannot (catalog.Resolver).
type ProductResolver interface {
	Resolve(ctx context.Context, item *entity.ExtractedItem) *entity.Product
}

// ScopeFilter computes the recipe scope of a run (recipes.Filter).
type ScopeFilter interface {
	ComputeScope(ctx context.Context, recipeID *uuid.UUID) (*recipes.Scope, error)
}

// Recorder persists accepted lines atomically (history.Recorder).
type Recorder interface {
	RecordAll(ctx context.Context, accepted []history.Accepted, uploaderID uuid.UUID, purchaseDate time.Time) ([]uuid.UUID, error)
}

// Request is one receipt processing run.
type Request struct {
	Image      entity.Image
	UploaderID uuid.UUID  // uuid.Nil falls back to Image.UploaderID
	RecipeID   *uuid.UUID // nil processes the receipt as a plain shopping list
}
