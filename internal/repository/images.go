package repository

import (
	"context"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

type ImageRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error)
	// FindByLocator returns the image stored at locator for an uploader.
	FindByLocator(ctx context.Context, uploaderID uuid.UUID, locator string) (*entity.Image, error)
	Create(ctx context.Context, img *entity.Image) error
}

type imageRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewImageRepository(db *DB, logger *slog.Logger) ImageRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &imageRepo{
		db:     db,
		logger: logger,
	}
}

var imageColumns = []string{"id", "uploader_id", "storage_locator", "mime_type", "created_at"}

func (r *imageRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	img, err := r.first(ctx, entsql.EQ("id", id))
	if err != nil {
		r.logger.Error("failed to get image", "image_id", id, "error", err)
		return nil, err
	}
	if img == nil {
		return nil, notFound("image", id)
	}
	return img, nil
}

func (r *imageRepo) FindByLocator(ctx context.Context, uploaderID uuid.UUID, locator string) (*entity.Image, error) {
	img, err := r.first(ctx, entsql.And(entsql.EQ("uploader_id", uploaderID), entsql.EQ("storage_locator", locator)))
	if err != nil {
		r.logger.Error("failed to find image", "uploader_id", uploaderID, "locator", locator, "error", err)
		return nil, err
	}
	if img == nil {
		return nil, notFound("image", locator)
	}
	return img, nil
}

func (r *imageRepo) first(ctx context.Context, pred *entsql.Predicate) (*entity.Image, error) {
	b := entsql.Dialect(r.db.Dialect())
	sel := b.Select(imageColumns...).
		From(b.Table("images")).
		Where(pred).
		OrderBy("created_at").
		Limit(1)

	var out *entity.Image
	err := query(ctx, r.db.Driver, sel, func(rows *entsql.Rows) error {
		var (
			img     entity.Image
			created any
		)
		if err := rows.Scan(&img.ID, &img.UploaderID, &img.StorageLocator, &img.MimeType, &created); err != nil {
			return err
		}
		t, err := timeValue(created)
		if err != nil {
			return err
		}
		img.CreatedAt = t
		out = &img
		return nil
	})
	return out, err
}

func (r *imageRepo) Create(ctx context.Context, img *entity.Image) error {
	if img.ID == uuid.Nil {
		img.ID = uuid.New()
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Now().UTC()
	}
	ins := entsql.Dialect(r.db.Dialect()).
		Insert("images").
		Columns(imageColumns...).
		Values(img.ID, img.UploaderID, img.StorageLocator, img.MimeType, img.CreatedAt)
	if err := exec(ctx, r.db.Driver, ins); err != nil {
		r.logger.Error("failed to create image", "image_id", img.ID, "locator", img.StorageLocator, "error", err)
		return err
	}
	return nil
}
