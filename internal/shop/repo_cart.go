package shop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CartRepo struct{ DB *pgxpool.Pool }

func (r *CartRepo) CreateCart(ctx context.Context, userID string) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.Exec(ctx,
		`INSERT INTO carts(id, user_id) VALUES ($1, NULLIF($2,''))`, id, userID)
	if err != nil {
		return "", err
	}
	return id, nil
}

// AddOrUpdateItem: satu transaksi penuh untuk add/update reservasi.
//   - lock row variant (FOR UPDATE) selama operasi
//   - delta = qty baru - qty reservasi lama (boleh negatif = partial release)
//   - harga SELALU dihitung ulang untuk qty baru dengan rule set terkini
//   - deadline di-reset now + ReservationTTL (last-write-wins)
//
// Gagal di titik mana pun -> rollback total, tidak ada reservasi/counter
// setengah jadi.
func (r *CartRepo) AddOrUpdateItem(ctx context.Context, cartID, variantID string, quantity int, user UserContext, promoCode string) (CartItem, PriceBreakdown, error) {
	var item CartItem
	var price PriceBreakdown

	// validasi sebelum ambil lock apa pun
	if quantity <= 0 {
		return item, price, ErrInvalidQuantity
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return item, price, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM carts WHERE id=$1)`, cartID).Scan(&exists); err != nil {
		return item, price, err
	}
	if !exists {
		return item, price, ErrCartNotFound
	}

	// lock row variant + ambil base price produknya sekali jalan
	var v Variant
	var basePrice decimal.Decimal
	err = tx.QueryRow(ctx, `
		SELECT v.id, v.product_id, v.sku, v.stock_quantity, v.reserved_quantity, p.base_price
		FROM variants v JOIN products p ON p.id = v.product_id
		WHERE v.id = $1
		FOR UPDATE OF v`, variantID).
		Scan(&v.ID, &v.ProductID, &v.SKU, &v.StockQuantity, &v.ReservedQuantity, &basePrice)
	if errors.Is(err, pgx.ErrNoRows) {
		return item, price, ErrVariantNotFound
	}
	if err != nil {
		return item, price, err
	}

	existingID := ""
	existingQty := 0
	err = tx.QueryRow(ctx, `
		SELECT id, quantity FROM cart_items
		WHERE cart_id=$1 AND variant_id=$2`, cartID, variantID).
		Scan(&existingID, &existingQty)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return item, price, err
	}

	delta := quantity - existingQty
	if delta > 0 && v.Available() < delta {
		return item, price, fmt.Errorf("%w: need %d more, available %d",
			ErrInsufficientStock, delta, v.Available())
	}

	// rules di-query fresh di dalam tx; jangan pernah cache lintas call
	rules, err := loadActiveRules(ctx, tx)
	if err != nil {
		return item, price, err
	}
	now := time.Now().UTC()
	price = CalculatePrice(v, basePrice, quantity, user, promoCode, rules, now)

	item = CartItem{
		ID:                 existingID,
		CartID:             cartID,
		VariantID:          variantID,
		Quantity:           quantity,
		ReservedUntil:      now.Add(ReservationTTL),
		UnitPriceSnapshot:  price.FinalUnitPrice,
		DiscountSnapshot:   price.TotalDiscount.Round(2),
		FinalPriceSnapshot: price.TotalAfter.Round(2),
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO cart_items
			(id, cart_id, variant_id, quantity, reserved_until,
			 unit_price_snapshot, discount_snapshot, final_price_snapshot)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (cart_id, variant_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			reserved_until = EXCLUDED.reserved_until,
			unit_price_snapshot = EXCLUDED.unit_price_snapshot,
			discount_snapshot = EXCLUDED.discount_snapshot,
			final_price_snapshot = EXCLUDED.final_price_snapshot`,
		item.ID, item.CartID, item.VariantID, item.Quantity, item.ReservedUntil,
		item.UnitPriceSnapshot, item.DiscountSnapshot, item.FinalPriceSnapshot)
	if err != nil {
		return item, price, err
	}

	if delta != 0 {
		// CHECK constraint di schema jadi jaring terakhir kalau delta liar
		if _, err := tx.Exec(ctx, `
			UPDATE variants SET reserved_quantity = reserved_quantity + $2
			WHERE id=$1`, variantID, delta); err != nil {
			return item, price, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return item, price, err
	}
	return item, price, nil
}
