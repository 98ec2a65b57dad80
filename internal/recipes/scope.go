// Package recipes restricts a receipt run to the products a recipe uses.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/constants"
)

// ErrUnknownRecipe is returned by ComputeScope under the fail policy.
var ErrUnknownRecipe = errors.New("unknown recipe")

// Store reads recipe ingredients. found is false when the recipe does not exist.
type Store interface {
	IngredientProductIDs(ctx context.Context, recipeID uuid.UUID) (ids []uuid.UUID, found bool, err error)
}

// Scope is the set of product ids a run may record. A nil *Scope accepts everything.
type Scope struct {
	ids map[uuid.UUID]struct{}
}

// NewScope builds a scope from ids; duplicates collapse.
func NewScope(ids ...uuid.UUID) *Scope {
	s := &Scope{ids: make(map[uuid.UUID]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is allowed. It is true for every id on a nil scope.
func (s *Scope) Contains(id uuid.UUID) bool {
	if s == nil {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// Len is the number of allowed ids; -1 for a nil (unscoped) scope.
func (s *Scope) Len() int {
	if s == nil {
		return -1
	}
	return len(s.ids)
}

type Filter struct {
	store  Store
	policy constants.UnknownRecipePolicy
	logger *slog.Logger
}

func NewFilter(store Store, policy constants.UnknownRecipePolicy, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == "" {
		policy = constants.UnknownRecipeUnscoped
	}
	return &Filter{store: store, policy: policy, logger: logger}
}

// ComputeScope loads the scope for recipeID once per run. A nil recipeID is
// unscoped. A recipe that does not exist, or cannot be read, is handled by the
// configured policy: unscoped, empty, or an error wrapping ErrUnknownRecipe.
func (f *Filter) ComputeScope(ctx context.Context, recipeID *uuid.UUID) (*Scope, error) {
	if recipeID == nil {
		return nil, nil
	}
	log := f.logger.With("recipe_id", *recipeID)

	ids, found, err := f.store.IngredientProductIDs(ctx, *recipeID)
	switch {
	case err != nil:
		log.Warn("recipes.scope.load_failed", "error", err, "policy", f.policy)
		return f.fallback(fmt.Errorf("load recipe %s: %w: %w", *recipeID, ErrUnknownRecipe, err))
	case !found:
		log.Warn("recipes.scope.unknown_recipe", "policy", f.policy)
		return f.fallback(fmt.Errorf("recipe %s: %w", *recipeID, ErrUnknownRecipe))
	}

	scope := NewScope(ids...)
	log.Info("recipes.scope.loaded", "products", scope.Len())
	return scope, nil
}

func (f *Filter) fallback(cause error) (*Scope, error) {
	switch f.policy {
	case constants.UnknownRecipeEmpty:
		return NewScope(), nil
	case constants.UnknownRecipeFail:
		return nil, cause
	default:
		return nil, nil
	}
}
