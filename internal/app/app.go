// Package app wires configuration into the receipt processing components
// shared by the daemon and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/receipt-ledger/internal/catalog"
	"github.com/joseph-ayodele/receipt-ledger/internal/catalog/openfoodfacts"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/export"
	"github.com/joseph-ayodele/receipt-ledger/internal/extract"
	"github.com/joseph-ayodele/receipt-ledger/internal/history"
	"github.com/joseph-ayodele/receipt-ledger/internal/ingest"
	"github.com/joseph-ayodele/receipt-ledger/internal/llm"
	"github.com/joseph-ayodele/receipt-ledger/internal/llm/gemini"
	"github.com/joseph-ayodele/receipt-ledger/internal/llm/openai"
	"github.com/joseph-ayodele/receipt-ledger/internal/pipeline"
	"github.com/joseph-ayodele/receipt-ledger/internal/recipes"
	"github.com/joseph-ayodele/receipt-ledger/internal/reconcile"
	"github.com/joseph-ayodele/receipt-ledger/internal/repository"
	"github.com/joseph-ayodele/receipt-ledger/internal/server"
	"github.com/joseph-ayodele/receipt-ledger/internal/storage"
)

// App holds the long-lived components of one process.
type App struct {
	Config *common.Config
	DB     *repository.DB

	Images     repository.ImageRepository
	Products   repository.ProductRepository
	Categories repository.CategoryRepository
	Recipes    repository.RecipeRepository
	History    repository.HistoryRepository

	Store     *storage.LocalStore
	Provider  llm.VisionProvider
	Extractor *extract.Client
	Importer  *catalog.Importer
	Pipeline  *pipeline.Pipeline
	Ingestor  *ingest.FSIngestor
	Exporter  *export.Service

	logger *slog.Logger
}

// New opens the database, applies the schema and builds every component.
// provider may be nil, in which case one is built from cfg.LLM.
func New(ctx context.Context, cfg *common.Config, provider llm.VisionProvider, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewLocalStore(cfg.Images.Root, cfg.Images.PublicBaseURL, logger)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		if provider, err = NewVisionProvider(cfg.LLM, logger); err != nil {
			return nil, err
		}
	}

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		DB:         db,
		Images:     repository.NewImageRepository(db, logger),
		Products:   repository.NewProductRepository(db, logger),
		Categories: repository.NewCategoryRepository(db, logger),
		Recipes:    repository.NewRecipeRepository(db, logger),
		History:    repository.NewHistoryRepository(db, logger),
		Store:      store,
		Provider:   provider,
		logger:     logger,
	}

	off := openfoodfacts.NewClient(openfoodfacts.Config{
		BaseURL: cfg.Catalog.BaseURL,
		Timeout: cfg.Catalog.Timeout,
	}, logger)
	a.Importer = catalog.NewImporter(off, a.Products, a.Categories, logger)
	a.Extractor = extract.NewClient(store, provider, extract.Config{Timeout: cfg.LLM.Timeout}, logger)
	a.Pipeline = pipeline.NewPipeline(
		a.Extractor,
		reconcile.NewReconciler(cfg.Pipeline.ReconcileTolerance, logger),
		catalog.NewResolver(a.Products, a.Importer, logger),
		recipes.NewFilter(a.Recipes, cfg.Pipeline.UnknownRecipe, logger),
		history.NewRecorder(a.History, logger),
		logger,
	)
	a.Ingestor = ingest.NewFSIngestor(a.Images, store, logger)
	a.Exporter = export.NewService(a.History, logger)

	logger.Info("app.ready", "provider", provider.Name(), "dialect", db.Dialect(), "image_root", store.Root())
	return a, nil
}

// Close releases the database.
func (a *App) Close() {
	repository.Close(a.DB, a.logger)
}

// NewVisionProvider builds the configured provider with retries on transient failures.
func NewVisionProvider(cfg common.LLMConfig, logger *slog.Logger) (llm.VisionProvider, error) {
	retry := llm.RetryOptions{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2,
	}
	switch cfg.Provider {
	case "gemini", "":
		return gemini.NewClient(gemini.Config{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.GeminiBaseURL,
			Model:   cfg.GeminiModel,
			Timeout: cfg.Timeout,
			Retry:   retry,
		}, logger), nil
	case "openai":
		return openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.Timeout,
			Retry:   retry,
		}, logger), nil
	}
	return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown LLM_PROVIDER %q", cfg.Provider), common.ErrInvalidInput)
}
