package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/repository"
)

// ImageStore is where ingested bytes end up (storage.LocalStore).
type ImageStore interface {
	Save(ctx context.Context, locator string, r io.Reader) (int64, error)
	Exists(locator string) bool
}

// FSIngestor reads from the local filesystem. Files are stored content-addressed
// per uploader, so ingesting the same photo twice yields the same image row.
type FSIngestor struct {
	images repository.ImageRepository
	store  ImageStore
	logger *slog.Logger
}

func NewFSIngestor(images repository.ImageRepository, store ImageStore, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{images: images, store: store, logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, uploaderID uuid.UUID, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path}
	if uploaderID == uuid.Nil {
		return out, fmt.Errorf("%w: uploader id is required", common.ErrInvalidInput)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, common.WrapError(err, "abs path")
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("ingest.unsupported_extension", "path", abs, "ext", ext)
		return out, fmt.Errorf("%w: unsupported or missing extension %q", common.ErrInvalidInput, ext)
	}
	out.MimeType = constants.MimeTypeForExt(ext)

	f, err := os.Open(abs)
	if err != nil {
		return out, common.WrapError(err, "open")
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("ingest.close_failed", "path", abs, "error", err)
		}
	}(f)

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return out, common.WrapError(err, "hash")
	}
	out.HashHex = hex.EncodeToString(h.Sum(nil))
	out.Locator = uploaderID.String() + "/" + out.HashHex + "." + ext

	existing, err := i.images.FindByLocator(ctx, uploaderID, out.Locator)
	switch {
	case err == nil:
		out.ImageID = existing.ID
		out.UploadedAt = existing.CreatedAt
		out.Deduplicated = true
		i.logger.Info("ingest.deduplicated", "path", abs, "image_id", existing.ID)
		return out, nil
	case !repository.IsNotFound(err):
		return out, err
	}

	if !i.store.Exists(out.Locator) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return out, common.WrapError(err, "rewind")
		}
		if _, err := i.store.Save(ctx, out.Locator, f); err != nil {
			return out, err
		}
	}

	img := &entity.Image{
		UploaderID:     uploaderID,
		StorageLocator: out.Locator,
		MimeType:       out.MimeType,
		CreatedAt:      time.Now().UTC(),
	}
	if err := i.images.Create(ctx, img); err != nil {
		return out, err
	}
	out.ImageID = img.ID
	out.UploadedAt = img.CreatedAt
	i.logger.Info("ingest.stored", "path", abs, "image_id", img.ID, "locator", out.Locator)
	return out, nil
}

// IngestDirectory walks root, skips hidden if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	uploaderID uuid.UUID,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, uploaderID, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, common.WrapError(err, "walk")
	}
	return results, stats, nil
}
