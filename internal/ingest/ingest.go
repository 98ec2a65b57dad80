// Package ingest copies receipt photos into the image store and registers them.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string    `json:"source_path"`
	ImageID      uuid.UUID `json:"image_id"`
	Locator      string    `json:"locator,omitempty"`
	MimeType     string    `json:"mime_type,omitempty"`
	Deduplicated bool      `json:"deduplicated"`
	HashHex      string    `json:"content_hash_hex,omitempty"`
	UploadedAt   time.Time `json:"uploaded_at"`
	Err          string    `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the CLI and daemon depend on.
type Ingestor interface {
	// IngestPath ingests a single file for an uploader.
	IngestPath(ctx context.Context, uploaderID uuid.UUID, path string) (IngestionResult, error)
	// IngestDirectory ingests all supported images under root.
	IngestDirectory(ctx context.Context, uploaderID uuid.UUID, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
