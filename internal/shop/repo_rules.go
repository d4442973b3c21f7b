package shop

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier dipenuhi pgx.Tx maupun *pgxpool.Pool, jadi rule bisa di-load
// baik di dalam transaksi reservasi maupun lepas (price preview).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type RuleRepo struct{ DB *pgxpool.Pool }

// ActiveRules untuk caller tanpa transaksi (endpoint preview harga).
func (r *RuleRepo) ActiveRules(ctx context.Context) ([]PricingRule, error) {
	return loadActiveRules(ctx, r.DB)
}

// loadActiveRules ambil rule aktif lengkap dengan conditions & actions.
// Dipanggil fresh setiap evaluasi harga; perubahan rule operasional
// langsung kepakai tanpa restart.
func loadActiveRules(ctx context.Context, q querier) ([]PricingRule, error) {
	rows, err := q.Query(ctx, `
		SELECT id, name, priority FROM pricing_rules
		WHERE is_active ORDER BY priority, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []PricingRule
	byID := map[string]int{}
	for rows.Next() {
		var r PricingRule
		if err := rows.Scan(&r.ID, &r.Name, &r.Priority); err != nil {
			return nil, err
		}
		r.IsActive = true
		byID[r.ID] = len(rules)
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, nil
	}

	crows, err := q.Query(ctx, `
		SELECT c.rule_id, c.product_id, c.variant_id, c.min_quantity,
		       c.user_tier, c.start_at, c.end_at, c.promo_code
		FROM pricing_rule_conditions c
		JOIN pricing_rules r ON r.id = c.rule_id
		WHERE r.is_active`)
	if err != nil {
		return nil, err
	}
	defer crows.Close()
	for crows.Next() {
		var ruleID string
		var c RuleCondition
		if err := crows.Scan(&ruleID, &c.ProductID, &c.VariantID, &c.MinQuantity,
			&c.UserTier, &c.StartAt, &c.EndAt, &c.PromoCode); err != nil {
			return nil, err
		}
		if i, ok := byID[ruleID]; ok {
			rules[i].Conditions = append(rules[i].Conditions, c)
		}
	}
	if err := crows.Err(); err != nil {
		return nil, err
	}

	arows, err := q.Query(ctx, `
		SELECT a.rule_id, a.discount_type, a.discount_value
		FROM pricing_rule_actions a
		JOIN pricing_rules r ON r.id = a.rule_id
		WHERE r.is_active`)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var ruleID, dtype string
		var a RuleAction
		if err := arows.Scan(&ruleID, &dtype, &a.Value); err != nil {
			return nil, err
		}
		a.Type = DiscountType(dtype)
		if i, ok := byID[ruleID]; ok {
			rules[i].Actions = append(rules[i].Actions, a)
		}
	}
	return rules, arows.Err()
}
