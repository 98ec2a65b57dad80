package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/ingest"
	"github.com/joseph-ayodele/receipt-ledger/internal/pipeline"
)

// Ingestor stores local images (ingest.FSIngestor).
type Ingestor = ingest.Ingestor

var ingestFields = ids{required: []string{"uploader_id"}, optional: []string{"recipe_id"}}

// maxPathLength bounds client supplied filesystem paths.
const maxPathLength = 4096

func validatePath(field, value string) error {
	v := common.NewValidator().Field(field, value, common.Required, common.MaxLength(maxPathLength))
	return common.ValidateAndReturnError(v)
}

func ingestResult(r ingest.IngestionResult) map[string]any {
	m := map[string]any{
		"source_path":      r.SourcePath,
		"deduplicated":     r.Deduplicated,
		"content_hash_hex": r.HashHex,
		"mime_type":        r.MimeType,
		"locator":          r.Locator,
		"error":            r.Err,
	}
	if r.ImageID != uuid.Nil {
		m["image_id"] = r.ImageID.String()
		m["uploaded_at"] = r.UploadedAt.UTC().Format(time.RFC3339)
	}
	return m
}

// IngestFile expects {uploader_id, path, process?, recipe_id?}. With
// process=true the stored image is run through the pipeline and the report is
// included under "report".
func (s *ReceiptService) IngestFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.ingestor == nil {
		return nil, common.UnimplementedError("ingest is not enabled")
	}
	parsed, err := ingestFields.parse(req)
	if err != nil {
		return nil, err
	}
	path := stringField(req, "path")
	if err := validatePath("path", path); err != nil {
		return nil, err
	}
	uploaderID := parsed["uploader_id"]

	s.logger.Info("starting file ingest", "uploader_id", uploaderID, "path", path)
	r, err := s.ingestor.IngestPath(ctx, uploaderID, path)
	if err != nil {
		s.logger.Error("file ingest failed", "uploader_id", uploaderID, "path", path, "error", err)
		return nil, common.ToStatus(err)
	}
	s.logger.Info("file ingest succeeded", "uploader_id", uploaderID, "image_id", r.ImageID, "deduplicated", r.Deduplicated)

	out := ingestResult(r)
	if boolField(req, "process", false) {
		img, err := s.images.GetByID(ctx, r.ImageID)
		if err != nil {
			return nil, common.ToStatus(err)
		}
		report := s.processor.Process(ctx, pipeline.Request{
			Image:      *img,
			UploaderID: uploaderID,
			RecipeID:   optionalID(parsed, "recipe_id"),
		})
		rs, err := toStruct(report)
		if err != nil {
			return nil, common.InternalError(err.Error())
		}
		out["report"] = rs.AsMap()
	}
	return structpb.NewStruct(out)
}

// IngestDirectory expects {uploader_id, root_path, skip_hidden?}; skip_hidden defaults to true.
func (s *ReceiptService) IngestDirectory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.ingestor == nil {
		return nil, common.UnimplementedError("ingest is not enabled")
	}
	parsed, err := ingestFields.parse(req)
	if err != nil {
		return nil, err
	}
	root := stringField(req, "root_path")
	if err := validatePath("root_path", root); err != nil {
		return nil, err
	}
	uploaderID := parsed["uploader_id"]
	skipHidden := boolField(req, "skip_hidden", true)

	s.logger.Info("starting directory ingest", "uploader_id", uploaderID, "root", root, "skip_hidden", skipHidden)
	results, stats, err := s.ingestor.IngestDirectory(ctx, uploaderID, root, skipHidden)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("ingest directory: %v", err)
	}
	s.logger.Info("directory ingest completed", "uploader_id", uploaderID,
		"scanned", stats.Scanned, "matched", stats.Matched, "succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated, "failed", stats.Failed)

	items := make([]any, 0, len(results))
	for _, r := range results {
		items = append(items, ingestResult(r))
	}
	return structpb.NewStruct(map[string]any{
		"scanned":      stats.Scanned,
		"matched":      stats.Matched,
		"succeeded":    stats.Succeeded,
		"deduplicated": stats.Deduplicated,
		"failed":       stats.Failed,
		"results":      items,
	})
}
