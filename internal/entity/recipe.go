package entity

import "github.com/google/uuid"

// Recipe is a named list of ingredient products.
type Recipe struct {
	ID                   uuid.UUID   `json:"id"`
	Name                 string      `json:"name"`
	IngredientProductIDs []uuid.UUID `json:"ingredient_product_ids"`
}
