package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema dijalankan saat startup; idempotent (IF NOT EXISTS semua).
// CHECK constraint di variants menjaga invariant counter di level storage:
// 0 <= reserved_quantity <= stock_quantity.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		base_price NUMERIC(10,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS variants (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id),
		sku TEXT NOT NULL UNIQUE,
		stock_quantity INT NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		reserved_quantity INT NOT NULL DEFAULT 0
			CHECK (reserved_quantity >= 0 AND reserved_quantity <= stock_quantity)
	);

	CREATE TABLE IF NOT EXISTS carts (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT PRIMARY KEY,
		cart_id TEXT NOT NULL REFERENCES carts(id),
		variant_id TEXT NOT NULL REFERENCES variants(id),
		quantity INT NOT NULL CHECK (quantity > 0),
		reserved_until TIMESTAMPTZ NOT NULL,
		unit_price_snapshot NUMERIC(10,2) NOT NULL,
		discount_snapshot NUMERIC(10,2) NOT NULL,
		final_price_snapshot NUMERIC(10,2) NOT NULL,
		UNIQUE (cart_id, variant_id)
	);

	CREATE TABLE IF NOT EXISTS pricing_rules (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		priority INT NOT NULL DEFAULT 100
	);

	CREATE TABLE IF NOT EXISTS pricing_rule_conditions (
		id TEXT PRIMARY KEY,
		rule_id TEXT NOT NULL REFERENCES pricing_rules(id),
		product_id TEXT REFERENCES products(id),
		variant_id TEXT REFERENCES variants(id),
		min_quantity INT,
		user_tier TEXT,
		start_at TIMESTAMPTZ,
		end_at TIMESTAMPTZ,
		promo_code TEXT
	);

	CREATE TABLE IF NOT EXISTS pricing_rule_actions (
		id TEXT PRIMARY KEY,
		rule_id TEXT NOT NULL REFERENCES pricing_rules(id),
		discount_type TEXT NOT NULL CHECK (discount_type IN ('percent','absolute')),
		discount_value NUMERIC(10,2) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		total_amount NUMERIC(10,2) NOT NULL,
		status TEXT NOT NULL DEFAULT 'confirmed',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id),
		variant_id TEXT NOT NULL REFERENCES variants(id),
		quantity INT NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(10,2) NOT NULL,
		discount NUMERIC(10,2) NOT NULL,
		final_price NUMERIC(10,2) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_cart_items_expiry ON cart_items(reserved_until);
	CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id);
	CREATE INDEX IF NOT EXISTS idx_variants_product ON variants(product_id);
	CREATE INDEX IF NOT EXISTS idx_rules_active ON pricing_rules(is_active, priority);
	CREATE INDEX IF NOT EXISTS idx_rule_conditions_rule ON pricing_rule_conditions(rule_id);
	CREATE INDEX IF NOT EXISTS idx_rule_actions_rule ON pricing_rule_actions(rule_id);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
	`
	_, err := db.Exec(ctx, schema)
	return err
}

// SeedDemo isi satu produk contoh kalau tabel masih kosong (untuk dev lokal).
func SeedDemo(ctx context.Context, db *pgxpool.Pool) error {
	var n int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := db.Exec(ctx, `
		INSERT INTO products(id, name, description, base_price)
		VALUES ('prod-demo-1', 'T-Shirt', 'Basic tee', 10.00)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, `
		INSERT INTO variants(id, product_id, sku, stock_quantity)
		VALUES ('var-demo-1', 'prod-demo-1', 'TS-RED-M', 100)
		ON CONFLICT (sku) DO NOTHING`)
	return err
}
