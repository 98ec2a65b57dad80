package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/catalog"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/extract"
	"github.com/joseph-ayodele/receipt-ledger/internal/history"
	"github.com/joseph-ayodele/receipt-ledger/internal/recipes"
	"github.com/joseph-ayodele/receipt-ledger/internal/reconcile"
	"github.com/joseph-ayodele/receipt-ledger/internal/repository"
)

type fakeExtractor struct {
	sale *entity.SaleExtraction
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, img entity.Image) (*entity.SaleExtraction, error) {
	return f.sale, f.err
}

type fakeResolver map[string]*entity.Product

func (f fakeResolver) Resolve(ctx context.Context, item *entity.ExtractedItem) *entity.Product {
	return f[item.Barcode]
}

type fakeRecipes map[uuid.UUID][]uuid.UUID

func (f fakeRecipes) IngredientProductIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, bool, error) {
	ids, ok := f[id]
	return ids, ok, nil
}

type memStore struct {
	records []entity.PurchaseHistoryRecord
	err     error
}

func (s *memStore) CreateBatch(ctx context.Context, records []entity.PurchaseHistoryRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, records...)
	return nil
}

func line(code, barcode, name, qty, unit, discount, total string) *entity.ExtractedItem {
	t := decimal.RequireFromString(total)
	return &entity.ExtractedItem{
		ItemCode:       code,
		Barcode:        barcode,
		Name:           name,
		Quantity:       decimal.RequireFromString(qty),
		UnitPrice:      decimal.RequireFromString(unit),
		Discount:       decimal.RequireFromString(discount),
		TotalPrice:     t,
		ExtractedTotal: t,
	}
}

func sale(items ...*entity.ExtractedItem) *entity.SaleExtraction {
	return &entity.SaleExtraction{SaleDateRaw: "20/06/2024 - 14:30", Items: items}
}

type harness struct {
	store   *memStore
	recipes fakeRecipes
	policy  constants.UnknownRecipePolicy
}

func (h *harness) pipeline(ex Extractor, products fakeResolver) *Pipeline {
	if h.store == nil {
		h.store = &memStore{}
	}
	return NewPipeline(
		ex,
		reconcile.NewReconciler(reconcile.DefaultTolerance, nil),
		products,
		recipes.NewFilter(h.recipes, h.policy, nil),
		history.NewRecorder(h.store, nil),
		nil,
	)
}

func testImage() entity.Image {
	return entity.Image{ID: uuid.New(), UploaderID: uuid.New(), StorageLocator: "r.jpg", MimeType: "image/jpeg"}
}

func TestProcess_SingleItem(t *testing.T) {
	milk := &entity.Product{ID: uuid.New(), Barcode: "7891000100103", Name: "Leite"}
	h := &harness{}
	p := h.pipeline(&fakeExtractor{sale: sale(line("001", milk.Barcode, "LEITE", "2", "10.00", "0", "20.00"))},
		fakeResolver{milk.Barcode: milk})

	img := testImage()
	report := p.Process(context.Background(), Request{Image: img})

	require.True(t, report.Success, report.Message)
	assert.Equal(t, 1, report.ProcessedCount)
	assert.Equal(t, 0, report.SkippedCount)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Corrections)
	assert.Equal(t, "Receipt processing finished. 1 items processed, 0 items skipped.", report.Message)

	require.Len(t, h.store.records, 1)
	rec := h.store.records[0]
	assert.Equal(t, report.CreatedRecordIDs, []uuid.UUID{rec.ID})
	assert.Equal(t, milk.ID, rec.ProductID)
	assert.Equal(t, img.UploaderID, rec.UploaderID, "uploader defaults to the image's")
	assert.Equal(t, "20.00", rec.TotalPrice.StringFixed(2))
	assert.Equal(t, "2024-06-20", rec.PurchaseDate.Format("2006-01-02"))
}

func TestProcess_TotalCorrected(t *testing.T) {
	milk := &entity.Product{ID: uuid.New(), Barcode: "7891000100103"}
	h := &harness{}
	p := h.pipeline(&fakeExtractor{sale: sale(line("001", milk.Barcode, "LEITE", "2", "10.00", "0", "25.00"))},
		fakeResolver{milk.Barcode: milk})

	report := p.Process(context.Background(), Request{Image: testImage(), UploaderID: uuid.New()})

	require.True(t, report.Success)
	require.Len(t, report.Corrections, 1)
	assert.Equal(t, "25.00", report.Corrections[0].Extracted.StringFixed(2))
	assert.Equal(t, "20.00", report.Corrections[0].Corrected.StringFixed(2))
	require.Len(t, h.store.records, 1)
	assert.Equal(t, "20.00", h.store.records[0].TotalPrice.StringFixed(2))
}

func TestProcess_SkipReasons(t *testing.T) {
	milk := &entity.Product{ID: uuid.New(), Barcode: "111"}
	rice := &entity.Product{ID: uuid.New(), Barcode: "222"}
	recipeID := uuid.New()
	h := &harness{recipes: fakeRecipes{recipeID: {milk.ID}}}

	p := h.pipeline(&fakeExtractor{sale: sale(
		line("001", "", "PAO", "1", "5.00", "0", "5.00"),
		line("002", "333", "CAFE", "1", "12.00", "0", "12.00"),
		line("003", rice.Barcode, "ARROZ", "1", "25.00", "0", "25.00"),
		line("004", milk.Barcode, "LEITE", "3", "4.50", "0.50", "13.00"),
	)}, fakeResolver{milk.Barcode: milk, rice.Barcode: rice})

	report := p.Process(context.Background(), Request{Image: testImage(), RecipeID: &recipeID})

	require.True(t, report.Success)
	assert.Equal(t, 1, report.ProcessedCount)
	assert.Equal(t, 3, report.SkippedCount)
	require.Len(t, report.Skips, 3)
	assert.Equal(t, constants.SkipNoBarcode, report.Skips[0].Reason)
	assert.Equal(t, constants.SkipUnresolvedProduct, report.Skips[1].Reason)
	assert.Equal(t, constants.SkipOutOfRecipeScope, report.Skips[2].Reason)
	require.NotNil(t, report.Skips[2].ProductID)
	assert.Equal(t, rice.ID, *report.Skips[2].ProductID)
	assert.Equal(t, []int{0, 1, 2}, []int{report.Skips[0].Index, report.Skips[1].Index, report.Skips[2].Index})

	// out-of-scope lines do not produce error strings
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0], "PAO")
	assert.Contains(t, report.Errors[1], "CAFE")

	require.Len(t, h.store.records, 1)
	assert.Equal(t, milk.ID, h.store.records[0].ProductID)
	assert.Equal(t, "13.00", h.store.records[0].TotalPrice.StringFixed(2))
}

func TestProcess_EmptyBarcodeOnly(t *testing.T) {
	h := &harness{}
	p := h.pipeline(&fakeExtractor{sale: sale(line("001", "", "PAO", "1", "5.00", "0", "5.00"))}, fakeResolver{})

	report := p.Process(context.Background(), Request{Image: testImage()})

	require.True(t, report.Success)
	assert.Equal(t, 0, report.ProcessedCount)
	assert.Equal(t, 1, report.SkippedCount)
	assert.Len(t, report.Errors, 1)
	assert.Empty(t, report.CreatedRecordIDs)
	assert.Empty(t, h.store.records)
}

func TestProcess_AllOutOfScope(t *testing.T) {
	rice := &entity.Product{ID: uuid.New(), Barcode: "222"}
	recipeID := uuid.New()
	h := &harness{recipes: fakeRecipes{recipeID: {uuid.New()}}}
	p := h.pipeline(&fakeExtractor{sale: sale(line("001", rice.Barcode, "ARROZ", "1", "25.00", "0", "25.00"))},
		fakeResolver{rice.Barcode: rice})

	report := p.Process(context.Background(), Request{Image: testImage(), RecipeID: &recipeID})

	require.True(t, report.Success)
	assert.Equal(t, 0, report.ProcessedCount)
	assert.Equal(t, 1, report.SkippedCount)
	assert.Empty(t, report.Errors)
	assert.Empty(t, h.store.records)
}

func TestProcess_UnknownRecipePolicies(t *testing.T) {
	milk := &entity.Product{ID: uuid.New(), Barcode: "111"}
	missing := uuid.New()

	tests := []struct {
		policy    constants.UnknownRecipePolicy
		success   bool
		processed int
	}{
		{constants.UnknownRecipeUnscoped, true, 1},
		{constants.UnknownRecipeEmpty, true, 0},
		{constants.UnknownRecipeFail, false, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			h := &harness{recipes: fakeRecipes{}, policy: tt.policy}
			p := h.pipeline(&fakeExtractor{sale: sale(line("001", milk.Barcode, "LEITE", "1", "4.50", "0", "4.50"))},
				fakeResolver{milk.Barcode: milk})

			report := p.Process(context.Background(), Request{Image: testImage(), RecipeID: &missing})

			assert.Equal(t, tt.success, report.Success)
			assert.Equal(t, tt.processed, report.ProcessedCount)
			assert.Len(t, h.store.records, tt.processed)
			if !tt.success {
				assert.Equal(t, constants.FailureScope, report.FailureKind)
			}
		})
	}
}

func TestProcess_ExtractionFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind constants.FailureKind
	}{
		{"provider", &extract.Failure{Kind: constants.FailureProviderError, Message: "quota exceeded"}, constants.FailureProviderError},
		{"malformed", &extract.Failure{Kind: constants.FailureMalformedResponse, Message: "no items"}, constants.FailureMalformedResponse},
		{"no image", &extract.Failure{Kind: constants.FailureNoAccessibleImage, Message: "gone"}, constants.FailureNoAccessibleImage},
		{"unclassified", errors.New("boom"), constants.FailureProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &harness{}
			p := h.pipeline(&fakeExtractor{err: tt.err}, fakeResolver{})

			report := p.Process(context.Background(), Request{Image: testImage()})

			assert.False(t, report.Success)
			assert.Equal(t, tt.kind, report.FailureKind)
			assert.Equal(t, MsgExtractionFailed, report.Message)
			require.Len(t, report.Errors, 1)
			assert.Contains(t, report.Errors[0], tt.err.Error())
			assert.Empty(t, report.CreatedRecordIDs)
			assert.Empty(t, h.store.records)
		})
	}
}

func TestProcess_InvalidSaleDate(t *testing.T) {
	for _, raw := range []string{"2024-06-20T14:30", "20/06/2024", "20/06/2024 14:30"} {
		t.Run(raw, func(t *testing.T) {
			h := &harness{}
			s := sale(line("001", "111", "LEITE", "1", "4.50", "0", "4.50"))
			s.SaleDateRaw = raw
			p := h.pipeline(&fakeExtractor{sale: s}, fakeResolver{"111": {ID: uuid.New()}})

			report := p.Process(context.Background(), Request{Image: testImage()})

			assert.False(t, report.Success)
			assert.Equal(t, constants.FailureDateParse, report.FailureKind)
			assert.Equal(t, MsgInvalidSaleDate, report.Message)
			assert.Empty(t, h.store.records)
		})
	}
}

func TestProcess_PersistenceFailureZeroesCounts(t *testing.T) {
	milk := &entity.Product{ID: uuid.New(), Barcode: "111"}
	h := &harness{store: &memStore{err: errors.New("disk full")}}
	p := h.pipeline(&fakeExtractor{sale: sale(
		line("001", milk.Barcode, "LEITE", "1", "4.50", "0", "4.50"),
		line("002", "", "PAO", "1", "5.00", "0", "5.00"),
	)}, fakeResolver{milk.Barcode: milk})

	report := p.Process(context.Background(), Request{Image: testImage()})

	assert.False(t, report.Success)
	assert.Equal(t, constants.FailurePersistence, report.FailureKind)
	assert.Equal(t, MsgPersistenceFailed, report.Message)
	assert.Zero(t, report.ProcessedCount)
	assert.Zero(t, report.SkippedCount)
	assert.Empty(t, report.CreatedRecordIDs)
	assert.Empty(t, report.Skips)
	assert.Equal(t, []string{"disk full"}, report.Errors)
}

func TestProcess_ConstraintViolationRollsBack(t *testing.T) {
	ctx := context.Background()
	db, err := repository.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })
	require.NoError(t, repository.Migrate(ctx, db))

	products := repository.NewProductRepository(db, nil)
	hist := repository.NewHistoryRepository(db, nil)
	for _, bc := range []string{"111", "222", "333"} {
		_, _, err := products.CreateIfAbsent(ctx, &entity.Product{Barcode: bc, Name: "P" + bc})
		require.NoError(t, err)
	}

	// The third line's discount exceeds its gross, so its total violates the
	// non-negative check on purchase_history.
	ex := &fakeExtractor{sale: sale(
		line("001", "111", "LEITE", "2", "10.00", "0", "20.00"),
		line("002", "222", "ARROZ", "1", "25.00", "0", "25.00"),
		line("003", "333", "CAFE", "1", "5.00", "6.00", "0.00"),
	)}
	p := NewPipeline(
		ex,
		reconcile.NewReconciler(reconcile.DefaultTolerance, nil),
		catalog.NewResolver(products, noLookup{}, nil),
		recipes.NewFilter(repository.NewRecipeRepository(db, nil), constants.UnknownRecipeUnscoped, nil),
		history.NewRecorder(hist, nil),
		nil,
	)

	uploader := uuid.New()
	report := p.Process(ctx, Request{Image: testImage(), UploaderID: uploader})

	assert.False(t, report.Success)
	assert.Equal(t, constants.FailurePersistence, report.FailureKind)
	assert.Zero(t, report.ProcessedCount)
	assert.Empty(t, report.CreatedRecordIDs)
	require.Len(t, report.Errors, 1)

	rows, err := hist.ListByUploader(ctx, repository.HistoryFilter{UploaderID: uploader})
	require.NoError(t, err)
	assert.Empty(t, rows, "no partial commit")
}

type noLookup struct{}

func (noLookup) FindOrFetchByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	return nil, common.ErrNotFound
}
