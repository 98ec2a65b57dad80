package llm

// BuildSaleJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It runs locally against the normalized model output; item totals are
// checked for type only, since reconciliation repairs them.
func BuildSaleJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"item_code":       map[string]any{"type": "string"},
			"barcode":         map[string]any{"type": "string"},
			"name":            map[string]any{"type": "string"},
			"quantity":        map[string]any{"type": "number", "minimum": 0},
			"unit_of_measure": map[string]any{"type": "string"},
			"unit_price":      map[string]any{"type": "number", "minimum": 0},
			"total_price":     map[string]any{"type": "number"},
			"discount":        map[string]any{"type": "number", "minimum": 0},
		},
		"required": []string{"item_code", "name", "quantity", "unit_price", "total_price", "discount"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sale_date": map[string]any{"type": "string", "minLength": 1},
			"items":     map[string]any{"type": "array", "items": item},
		},
		"required": []string{"sale_date", "items"},
	}
}
