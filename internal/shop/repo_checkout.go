package shop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CheckoutRepo struct{ DB *pgxpool.Pool }

type CheckoutResult struct {
	OrderID string
	Total   decimal.Decimal
}

// Checkout: konversi semua reservasi satu cart jadi order, atomik.
// Semua variant yang tersangkut di-lock (FOR UPDATE, urut variant_id biar
// dua checkout paralel tidak saling deadlock), tiap line di-re-check
// terhadap drift sejak reservasi, lalu stok & reserved diturunkan
// permanen. Total order = jumlah snapshot final_price — kontrak harga
// saat reservasi, TIDAK dihitung ulang dari rule sekarang.
func (r *CheckoutRepo) Checkout(ctx context.Context, cartID, userID string) (CheckoutResult, error) {
	var res CheckoutResult

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM carts WHERE id=$1)`, cartID).Scan(&exists); err != nil {
		return res, err
	}
	if !exists {
		return res, ErrCartNotFound
	}

	rows, err := tx.Query(ctx, `
		SELECT ci.id, ci.variant_id, ci.quantity, ci.reserved_until,
		       ci.unit_price_snapshot, ci.discount_snapshot, ci.final_price_snapshot,
		       v.stock_quantity, v.reserved_quantity
		FROM cart_items ci
		JOIN variants v ON v.id = ci.variant_id
		WHERE ci.cart_id = $1
		ORDER BY ci.variant_id
		FOR UPDATE OF v`, cartID)
	if err != nil {
		return res, err
	}

	type line struct {
		item     CartItem
		stock    int
		reserved int
	}
	var lines []line
	for rows.Next() {
		var l line
		l.item.CartID = cartID
		if err := rows.Scan(&l.item.ID, &l.item.VariantID, &l.item.Quantity, &l.item.ReservedUntil,
			&l.item.UnitPriceSnapshot, &l.item.DiscountSnapshot, &l.item.FinalPriceSnapshot,
			&l.stock, &l.reserved); err != nil {
			rows.Close()
			return res, err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return res, err
	}
	if len(lines) == 0 {
		return res, ErrEmptyCart
	}

	now := time.Now().UTC()
	orderID := uuid.NewString()
	total := decimal.Zero

	for _, l := range lines {
		if l.item.ReservedUntil.Before(now) {
			return res, fmt.Errorf("%w: variant %s", ErrReservationExpired, l.item.VariantID)
		}
		// re-check defensif terhadap drift sejak reservasi
		if l.reserved < l.item.Quantity {
			return res, fmt.Errorf("%w: variant %s reserved=%d need=%d",
				ErrReservedMismatch, l.item.VariantID, l.reserved, l.item.Quantity)
		}
		if l.stock < l.item.Quantity {
			return res, fmt.Errorf("%w: variant %s stock=%d need=%d",
				ErrInsufficientStock, l.item.VariantID, l.stock, l.item.Quantity)
		}

		// commit ledger: stok & reserved turun bersamaan
		if _, err := tx.Exec(ctx, `
			UPDATE variants
			SET stock_quantity = stock_quantity - $2,
			    reserved_quantity = reserved_quantity - $2
			WHERE id = $1`, l.item.VariantID, l.item.Quantity); err != nil {
			return res, err
		}

		total = total.Add(l.item.FinalPriceSnapshot)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders(id, user_id, total_amount, status)
		VALUES ($1, NULLIF($2,''), $3, $4)`,
		orderID, userID, total, OrderStatusConfirmed); err != nil {
		return res, err
	}
	for _, l := range lines {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, variant_id, quantity, unit_price, discount, final_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			uuid.NewString(), orderID, l.item.VariantID, l.item.Quantity,
			l.item.UnitPriceSnapshot, l.item.DiscountSnapshot, l.item.FinalPriceSnapshot); err != nil {
			return res, err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id=$1`, cartID); err != nil {
		return res, err
	}

	if err := tx.Commit(ctx); err != nil {
		return res, err
	}
	res.OrderID = orderID
	res.Total = total
	return res, nil
}
