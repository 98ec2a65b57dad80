package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]*entity.Category, error)
	FindByName(ctx context.Context, name string) (*entity.Category, error)
	// FindOrCreate returns the category with this name, creating it when absent.
	// Safe to call concurrently for the same name.
	FindOrCreate(ctx context.Context, name string) (*entity.Category, error)
}

type categoryRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewCategoryRepository(db *DB, logger *slog.Logger) CategoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &categoryRepository{
		db:     db,
		logger: logger,
	}
}

func (r *categoryRepository) selectCategories() *entsql.Selector {
	b := entsql.Dialect(r.db.Dialect())
	return b.Select("id", "name").From(b.Table("categories"))
}

func scanCategory(rows *entsql.Rows) (*entity.Category, error) {
	var c entity.Category
	if err := rows.Scan(&c.ID, &c.Name); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	var result []*entity.Category
	err := query(ctx, r.db.Driver, r.selectCategories().OrderBy("name"), func(rows *entsql.Rows) error {
		c, err := scanCategory(rows)
		if err != nil {
			return err
		}
		result = append(result, c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*entity.Category, error) {
	var out *entity.Category
	sel := r.selectCategories().Where(entsql.EQ("name", name)).Limit(1)
	err := query(ctx, r.db.Driver, sel, func(rows *entsql.Rows) error {
		c, err := scanCategory(rows)
		out = c
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, notFound("category", name)
	}
	return out, nil
}

func (r *categoryRepository) FindOrCreate(ctx context.Context, name string) (*entity.Category, error) {
	name = strings.TrimSpace(name)
	ins := entsql.Dialect(r.db.Dialect()).
		Insert("categories").
		Columns("id", "name", "created_at").
		Values(uuid.New(), name, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("name"), entsql.DoNothing())
	if err := exec(ctx, r.db.Driver, ins); err != nil {
		r.logger.Error("failed to create category", "name", name, "error", err)
		return nil, err
	}
	return r.FindByName(ctx, name)
}
