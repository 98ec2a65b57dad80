package repository

import (
	"context"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
)

// schemaDDL is written once with type placeholders and rendered per dialect.
// Money columns keep 2 decimals and quantities 3, matching receipts.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id {{uuid}} PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id {{uuid}} PRIMARY KEY,
		barcode TEXT UNIQUE,
		name TEXT NOT NULL,
		category_id {{uuid}} REFERENCES categories(id),
		description TEXT NOT NULL DEFAULT '',
		unit_of_measure TEXT NOT NULL DEFAULT '',
		package_quantity {{qty}},
		image_url TEXT NOT NULL DEFAULT '',
		created_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS images (
		id {{uuid}} PRIMARY KEY,
		uploader_id {{uuid}} NOT NULL,
		storage_locator TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		created_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS recipes (
		id {{uuid}} PRIMARY KEY,
		name TEXT NOT NULL,
		created_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS recipe_ingredients (
		recipe_id {{uuid}} NOT NULL REFERENCES recipes(id) ON DELETE CASCADE,
		product_id {{uuid}} NOT NULL REFERENCES products(id),
		PRIMARY KEY (recipe_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS purchase_history (
		id {{uuid}} PRIMARY KEY,
		uploader_id {{uuid}} NOT NULL,
		product_id {{uuid}} NOT NULL REFERENCES products(id),
		unit_price {{money}} NOT NULL CHECK (unit_price >= 0),
		quantity {{qty}} NOT NULL CHECK (quantity >= 0),
		total_price {{money}} NOT NULL CHECK (total_price >= 0),
		discount {{money}} NOT NULL DEFAULT 0 CHECK (discount >= 0),
		purchase_date {{date}} NOT NULL,
		created_at {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS purchase_history_uploader_idx ON purchase_history (uploader_id, purchase_date)`,
}

var columnTypes = map[string]*strings.Replacer{
	dialect.Postgres: strings.NewReplacer(
		"{{uuid}}", "UUID",
		"{{money}}", "NUMERIC(14,2)",
		"{{qty}}", "NUMERIC(14,3)",
		"{{date}}", "DATE",
		"{{ts}}", "TIMESTAMPTZ NOT NULL DEFAULT now()",
	),
	dialect.SQLite: strings.NewReplacer(
		"{{uuid}}", "TEXT",
		"{{money}}", "NUMERIC",
		"{{qty}}", "NUMERIC",
		"{{date}}", "TEXT",
		"{{ts}}", "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
	),
}

// SchemaDDL renders the schema statements for one dialect.
func SchemaDDL(dialectName string) ([]string, error) {
	r, ok := columnTypes[dialectName]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", dialectName)
	}
	out := make([]string, 0, len(schemaDDL))
	for _, stmt := range schemaDDL {
		out = append(out, r.Replace(stmt))
	}
	return out, nil
}

// Migrate creates the tables this service reads and writes when they are missing.
func Migrate(ctx context.Context, db *DB) error {
	stmts, err := SchemaDDL(db.Dialect())
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, stmt := range stmts {
		if err := db.Driver.Exec(ctx, stmt, []any{}, nil); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
