package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

type RecipeRepository interface {
	Create(ctx context.Context, recipe *entity.Recipe) error
	// IngredientProductIDs returns the distinct product ids a recipe uses.
	// found is false when the recipe does not exist.
	IngredientProductIDs(ctx context.Context, recipeID uuid.UUID) (ids []uuid.UUID, found bool, err error)
}

type recipeRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewRecipeRepository(db *DB, logger *slog.Logger) RecipeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &recipeRepository{db: db, logger: logger}
}

// Create stores the recipe and its ingredient links in one transaction.
func (r *recipeRepository) Create(ctx context.Context, recipe *entity.Recipe) (err error) {
	if recipe.ID == uuid.Nil {
		recipe.ID = uuid.New()
	}

	tx, err := r.db.Driver.Tx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	b := entsql.Dialect(r.db.Dialect())
	if err = exec(ctx, tx, b.Insert("recipes").
		Columns("id", "name", "created_at").
		Values(recipe.ID, recipe.Name, time.Now().UTC())); err != nil {
		return err
	}

	seen := make(map[uuid.UUID]struct{}, len(recipe.IngredientProductIDs))
	for _, pid := range recipe.IngredientProductIDs {
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		if err = exec(ctx, tx, b.Insert("recipe_ingredients").
			Columns("recipe_id", "product_id").
			Values(recipe.ID, pid)); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}
	return nil
}

func (r *recipeRepository) IngredientProductIDs(ctx context.Context, recipeID uuid.UUID) ([]uuid.UUID, bool, error) {
	b := entsql.Dialect(r.db.Dialect())

	found := false
	exists := b.Select("id").From(b.Table("recipes")).Where(entsql.EQ("id", recipeID)).Limit(1)
	if err := query(ctx, r.db.Driver, exists, func(rows *entsql.Rows) error {
		found = true
		return nil
	}); err != nil {
		r.logger.Error("failed to load recipe", "recipe_id", recipeID, "error", err)
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}

	ids := make([]uuid.UUID, 0)
	sel := b.Select("product_id").
		Distinct().
		From(b.Table("recipe_ingredients")).
		Where(entsql.EQ("recipe_id", recipeID)).
		OrderBy("product_id")
	if err := query(ctx, r.db.Driver, sel, func(rows *entsql.Rows) error {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	}); err != nil {
		r.logger.Error("failed to load recipe ingredients", "recipe_id", recipeID, "error", err)
		return nil, true, err
	}
	return ids, true, nil
}
