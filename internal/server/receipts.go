package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/receipt-ledger/internal/async"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/pipeline"
)

// ImageFinder loads image rows (repository.ImageRepository).
type ImageFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error)
}

// Processor runs one receipt (pipeline.Pipeline).
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) entity.ProcessingReport
}

// ReceiptService implements ReceiptProcessingServer. The ingest, export and
// queue collaborators are optional; methods needing a missing one return Unimplemented.
type ReceiptService struct {
	images    ImageFinder
	processor Processor
	queue     async.Queue
	ingestor  Ingestor
	exporter  Exporter
	logger    *slog.Logger
}

type Option func(*ReceiptService)

func WithQueue(q async.Queue) Option { return func(s *ReceiptService) { s.queue = q } }
func WithIngestor(i Ingestor) Option { return func(s *ReceiptService) { s.ingestor = i } }
func WithExporter(e Exporter) Option { return func(s *ReceiptService) { s.exporter = e } }

func NewReceiptService(images ImageFinder, processor Processor, logger *slog.Logger, opts ...Option) *ReceiptService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ReceiptService{images: images, processor: processor, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

var processFields = ids{required: []string{"image_id"}, optional: []string{"uploader_id", "recipe_id"}}

// ProcessReceipt expects {image_id, uploader_id?, recipe_id?, async?}. With
// async=true the run is queued and the response only acknowledges it.
func (s *ReceiptService) ProcessReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	parsed, err := processFields.parse(req)
	if err != nil {
		s.logger.Error("process receipt request invalid", "error", err)
		return nil, err
	}
	imageID := parsed["image_id"]
	uploaderID := parsed["uploader_id"]
	recipeID := optionalID(parsed, "recipe_id")

	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFoundError("image not found")
		}
		s.logger.Error("failed to load image", "image_id", imageID, "error", err)
		return nil, common.InternalErrorf("load image: %v", err)
	}

	if boolField(req, "async", false) {
		if s.queue == nil {
			return nil, common.UnavailableError("background processing is not enabled")
		}
		job := async.Job{
			ImageID:     img.ID,
			UploaderID:  uploaderID,
			RecipeID:    recipeID,
			SubmittedAt: time.Now(),
			TraceID:     common.RequestIDFromContext(ctx),
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			return nil, common.UnavailableError(err.Error())
		}
		return structpb.NewStruct(map[string]any{"queued": true, "image_id": img.ID.String()})
	}

	s.logger.Info("processing receipt", "image_id", img.ID)
	report := s.processor.Process(ctx, pipeline.Request{Image: *img, UploaderID: uploaderID, RecipeID: recipeID})
	out, err := toStruct(report)
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}
