package shop

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SweepRepo struct{ DB *pgxpool.Pool }

// ReclaimedHold = reservasi kedaluwarsa yang baru dikembalikan ke pool.
type ReclaimedHold struct {
	CartID    string `json:"cart_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// ReclaimExpired: satu transaksi sweep. FOR UPDATE mengunci baris
// cart_items DAN variants: baris yang keburu di-checkout atau di-arm
// ulang selama sweep antre lock dievaluasi ulang terhadap deadline dan
// hilang dari hasil, jadi tidak ada aksi di atas read basi. Counter
// hanya diturunkan kalau DELETE benar-benar mengenai baris reservasi.
func (r *SweepRepo) ReclaimExpired(ctx context.Context, now time.Time) ([]ReclaimedHold, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.variant_id, ci.quantity, v.reserved_quantity
		FROM cart_items ci
		JOIN variants v ON v.id = ci.variant_id
		WHERE ci.reserved_until < $1
		ORDER BY ci.variant_id
		FOR UPDATE OF ci, v`, now)
	if err != nil {
		return nil, err
	}

	type expired struct {
		itemID   string
		hold     ReclaimedHold
		reserved int
	}
	var batch []expired
	for rows.Next() {
		var e expired
		if err := rows.Scan(&e.itemID, &e.hold.CartID, &e.hold.VariantID,
			&e.hold.Quantity, &e.reserved); err != nil {
			rows.Close()
			return nil, err
		}
		batch = append(batch, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	// remaining = sisa reserved per varian selama batch ini berjalan,
	// supaya hold kedua di varian yang sama dibandingkan dengan angka
	// sesudah decrement pertama, bukan angka saat scan.
	remaining := make(map[string]int, len(batch))
	for _, e := range batch {
		if _, ok := remaining[e.hold.VariantID]; !ok {
			remaining[e.hold.VariantID] = e.reserved
		}
	}

	holds := make([]ReclaimedHold, 0, len(batch))
	for _, e := range batch {
		tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id=$1`, e.itemID)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			// baris keburu hilang; counter-nya sudah diurus pihak lain
			continue
		}
		if remaining[e.hold.VariantID] < e.hold.Quantity {
			// seharusnya tidak mungkin kalau locking disiplin; clamp ke nol
			// tapi teriak keras karena ini indikasi double-release.
			log.Printf("sweep: variant %s reserved_quantity=%d below expired hold qty=%d, clamping",
				e.hold.VariantID, remaining[e.hold.VariantID], e.hold.Quantity)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE variants
			SET reserved_quantity = GREATEST(reserved_quantity - $2, 0)
			WHERE id = $1`, e.hold.VariantID, e.hold.Quantity); err != nil {
			return nil, err
		}
		remaining[e.hold.VariantID] -= e.hold.Quantity
		if remaining[e.hold.VariantID] < 0 {
			remaining[e.hold.VariantID] = 0
		}
		holds = append(holds, e.hold)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return holds, nil
}
