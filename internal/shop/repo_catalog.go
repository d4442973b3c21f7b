package shop

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogRepo = kolaborator katalog. Core reservasi tidak pernah bikin
// unit sendiri; produk/variant masuk lewat sini dengan reserved = 0.
type CatalogRepo struct{ DB *pgxpool.Pool }

func (r *CatalogRepo) CreateProduct(ctx context.Context, name, description string, basePrice decimal.Decimal) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, description, base_price)
		VALUES ($1,$2,NULLIF($3,''),$4)`, id, name, description, basePrice)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *CatalogRepo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, COALESCE(description,''), base_price, created_at, updated_at
		FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.BasePrice, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) CreateVariant(ctx context.Context, productID, sku string, stock int) (string, error) {
	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM products WHERE id=$1)`, productID).Scan(&exists); err != nil {
		return "", err
	}
	if !exists {
		return "", ErrProductNotFound
	}
	id := uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO variants(id, product_id, sku, stock_quantity)
		VALUES ($1,$2,$3,$4)`, id, productID, sku, stock)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetVariant tanpa lock — dipakai preview harga, bukan jalur mutasi.
func (r *CatalogRepo) GetVariant(ctx context.Context, id string) (Variant, decimal.Decimal, error) {
	var v Variant
	var basePrice decimal.Decimal
	err := r.DB.QueryRow(ctx, `
		SELECT v.id, v.product_id, v.sku, v.stock_quantity, v.reserved_quantity, p.base_price
		FROM variants v JOIN products p ON p.id = v.product_id
		WHERE v.id = $1`, id).
		Scan(&v.ID, &v.ProductID, &v.SKU, &v.StockQuantity, &v.ReservedQuantity, &basePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return v, basePrice, ErrVariantNotFound
	}
	return v, basePrice, err
}

func (r *CatalogRepo) GetOrder(ctx context.Context, id string) (Order, error) {
	var o Order
	err := r.DB.QueryRow(ctx, `
		SELECT id, COALESCE(user_id,''), total_amount, status, created_at
		FROM orders WHERE id=$1`, id).
		Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, ErrOrderNotFound
	}
	return o, err
}
