// Package pipeline runs a receipt image through extraction, reconciliation,
// product resolution, recipe scoping and recording, and reports the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/extract"
	"github.com/joseph-ayodele/receipt-ledger/internal/history"
)

// Report messages for failed runs.
const (
	MsgExtractionFailed  = "Failed to extract valid data from the image."
	MsgInvalidSaleDate   = "Invalid sale date format received from image processing."
	MsgScopeFailed       = "Could not determine the recipe scope for this receipt."
	MsgPersistenceFailed = "Failed to save purchase history."
)

type Pipeline struct {
	logger     *slog.Logger
	extractor  Extractor
	reconciler Reconciler
	resolver   ProductResolver
	scopes     ScopeFilter
	recorder   Recorder
}

func NewPipeline(
	extractor Extractor,
	reconciler Reconciler,
	resolver ProductResolver,
	scopes ScopeFilter,
	recorder Recorder,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		extractor:  extractor,
		reconciler: reconciler,
		resolver:   resolver,
		scopes:     scopes,
		recorder:   recorder,
	}
}

// Process runs one receipt to completion. It never returns an error: every
// failure is folded into the report.
func (p *Pipeline) Process(ctx context.Context, req Request) entity.ProcessingReport {
	start := time.Now()
	uploaderID := req.UploaderID
	if uploaderID == uuid.Nil {
		uploaderID = req.Image.UploaderID
	}
	log := p.logger.With("image_id", req.Image.ID, "uploader_id", uploaderID)
	if req.RecipeID != nil {
		log = log.With("recipe_id", *req.RecipeID)
	}
	log.Info("pipeline.start")

	sale, err := p.extractor.Extract(ctx, req.Image)
	if err != nil {
		kind := constants.FailureProviderError
		var f *extract.Failure
		if errors.As(err, &f) {
			kind = f.Kind
		}
		log.Error("pipeline.extract.failed", "kind", kind, "error", err)
		return failed(kind, MsgExtractionFailed, err)
	}

	saleDate, err := extract.ParseSaleDate(sale.SaleDateRaw)
	if err != nil {
		log.Error("pipeline.sale_date.invalid", "sale_date", sale.SaleDateRaw, "error", err)
		return failed(constants.FailureDateParse, MsgInvalidSaleDate, err)
	}
	sale.SaleDate = saleDate

	corrections := p.reconciler.Reconcile(sale.Items)

	scope, err := p.scopes.ComputeScope(ctx, req.RecipeID)
	if err != nil {
		log.Error("pipeline.scope.failed", "error", err)
		report := failed(constants.FailureScope, MsgScopeFailed, err)
		report.Corrections = orEmpty(corrections)
		return report
	}

	report := entity.ProcessingReport{
		Errors:           []string{},
		CreatedRecordIDs: []uuid.UUID{},
		Skips:            []entity.ItemSkip{},
		Corrections:      orEmpty(corrections),
	}
	var accepted []history.Accepted

	for i, item := range sale.Items {
		if item == nil {
			continue
		}
		skip := entity.ItemSkip{Index: i, ItemCode: item.ItemCode, Barcode: item.Barcode, Name: item.Name}
		itemLog := log.With("index", i, "item_code", item.ItemCode, "barcode", item.Barcode)

		if item.Barcode == "" {
			itemLog.Warn("pipeline.item.no_barcode", "name", item.Name)
			skip.Reason = constants.SkipNoBarcode
			report.Skips = append(report.Skips, skip)
			report.Errors = append(report.Errors, fmt.Sprintf("Item without barcode: %s (code %s)", item.Name, item.ItemCode))
			continue
		}

		product := p.resolver.Resolve(ctx, item)
		if product == nil {
			itemLog.Warn("pipeline.item.unresolved", "name", item.Name)
			skip.Reason = constants.SkipUnresolvedProduct
			report.Skips = append(report.Skips, skip)
			report.Errors = append(report.Errors, fmt.Sprintf("Product not found or created for: %s", labelOf(item)))
			continue
		}

		if !scope.Contains(product.ID) {
			itemLog.Info("pipeline.item.out_of_scope", "product_id", product.ID, "product", product.Name)
			skip.Reason = constants.SkipOutOfRecipeScope
			pid := product.ID
			skip.ProductID = &pid
			report.Skips = append(report.Skips, skip)
			continue
		}

		accepted = append(accepted, history.Accepted{Item: item, Product: product})
	}

	ids, err := p.recorder.RecordAll(ctx, accepted, uploaderID, saleDate)
	if err != nil {
		log.Error("pipeline.record.failed", "accepted", len(accepted), "error", err)
		out := failed(constants.FailurePersistence, MsgPersistenceFailed, rootCause(err))
		out.Corrections = report.Corrections
		return out
	}

	report.Success = true
	report.ProcessedCount = len(ids)
	report.SkippedCount = len(report.Skips)
	report.CreatedRecordIDs = append(report.CreatedRecordIDs, ids...)
	report.Message = fmt.Sprintf("Receipt processing finished. %d items processed, %d items skipped.",
		report.ProcessedCount, report.SkippedCount)

	log.Info("pipeline.done",
		"processed", report.ProcessedCount,
		"skipped", report.SkippedCount,
		"corrections", len(report.Corrections),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return report
}

func failed(kind constants.FailureKind, msg string, cause error) entity.ProcessingReport {
	report := entity.ProcessingReport{
		Success:          false,
		Message:          msg,
		FailureKind:      kind,
		Errors:           []string{},
		CreatedRecordIDs: []uuid.UUID{},
		Skips:            []entity.ItemSkip{},
		Corrections:      []entity.TotalCorrection{},
	}
	if cause != nil {
		report.Errors = append(report.Errors, cause.Error())
	}
	return report
}

// rootCause drops the AppError envelope so the report carries the storage message.
func rootCause(err error) error {
	var app *common.AppError
	if errors.As(err, &app) && app.Cause != nil {
		return app.Cause
	}
	return err
}

func labelOf(item *entity.ExtractedItem) string {
	if item.Name != "" {
		return item.Name
	}
	return item.Barcode
}

func orEmpty(c []entity.TotalCorrection) []entity.TotalCorrection {
	if c == nil {
		return []entity.TotalCorrection{}
	}
	return c
}
