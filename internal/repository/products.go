package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error)
	// CreateIfAbsent inserts p unless a product with the same barcode exists,
	// and returns the stored row either way. created is false when the row was already there.
	CreateIfAbsent(ctx context.Context, p *entity.Product) (stored *entity.Product, created bool, err error)
}

type productRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewProductRepository(db *DB, logger *slog.Logger) ProductRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &productRepository{db: db, logger: logger}
}

func (r *productRepository) selectProducts() (*entsql.Selector, *entsql.SelectTable) {
	b := entsql.Dialect(r.db.Dialect())
	p := b.Table("products").As("p")
	c := b.Table("categories").As("c")
	sel := b.Select(
		p.C("id"), p.C("barcode"), p.C("name"), p.C("category_id"), c.C("name"),
		p.C("description"), p.C("unit_of_measure"), p.C("package_quantity"), p.C("image_url"), p.C("created_at"),
	).
		From(p).
		LeftJoin(c).On(p.C("category_id"), c.C("id"))
	return sel, p
}

func scanProduct(rows *entsql.Rows) (*entity.Product, error) {
	var (
		p       entity.Product
		barcode sql.NullString
		catID   uuid.NullUUID
		catName sql.NullString
		pkgQty  decimal.NullDecimal
		created any
	)
	if err := rows.Scan(&p.ID, &barcode, &p.Name, &catID, &catName,
		&p.Description, &p.UnitOfMeasure, &pkgQty, &p.ImageURL, &created); err != nil {
		return nil, err
	}
	p.Barcode = barcode.String
	if catID.Valid {
		id := catID.UUID
		p.CategoryID = &id
	}
	p.CategoryName = catName.String
	if pkgQty.Valid {
		q := pkgQty.Decimal
		p.PackageQuantity = &q
	}
	t, err := timeValue(created)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = t
	return &p, nil
}

func (r *productRepository) findOne(ctx context.Context, column string, value any) (*entity.Product, error) {
	sel, p := r.selectProducts()
	sel.Where(entsql.EQ(p.C(column), value)).Limit(1)

	var out *entity.Product
	err := query(ctx, r.db.Driver, sel, func(rows *entsql.Rows) error {
		prod, err := scanProduct(rows)
		out = prod
		return err
	})
	if err != nil {
		r.logger.Error("failed to query product", column, value, "error", err)
		return nil, err
	}
	if out == nil {
		return nil, notFound("product "+column, value)
	}
	return out, nil
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	return r.findOne(ctx, "id", id)
}

func (r *productRepository) FindByBarcode(ctx context.Context, barcode string) (*entity.Product, error) {
	return r.findOne(ctx, "barcode", barcode)
}

func (r *productRepository) CreateIfAbsent(ctx context.Context, p *entity.Product) (*entity.Product, bool, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var catID uuid.NullUUID
	if p.CategoryID != nil {
		catID = uuid.NullUUID{UUID: *p.CategoryID, Valid: true}
	}
	var pkgQty decimal.NullDecimal
	if p.PackageQuantity != nil {
		pkgQty = decimal.NewNullDecimal(*p.PackageQuantity)
	}

	ins := entsql.Dialect(r.db.Dialect()).
		Insert("products").
		Columns("id", "barcode", "name", "category_id", "description", "unit_of_measure", "package_quantity", "image_url", "created_at").
		Values(p.ID, p.Barcode, p.Name, catID, p.Description, p.UnitOfMeasure, pkgQty, p.ImageURL, p.CreatedAt).
		OnConflict(entsql.ConflictColumns("barcode"), entsql.DoNothing())
	if err := exec(ctx, r.db.Driver, ins); err != nil {
		r.logger.Error("failed to create product", "barcode", p.Barcode, "error", err)
		return nil, false, err
	}

	stored, err := r.FindByBarcode(ctx, p.Barcode)
	if err != nil {
		return nil, false, err
	}
	created := stored.ID == p.ID
	if created {
		r.logger.Info("product created", "product_id", stored.ID, "barcode", stored.Barcode, "name", stored.Name)
	}
	return stored, created, nil
}
