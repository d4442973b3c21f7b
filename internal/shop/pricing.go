package shop

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TTL reservasi: fixed, bukan config per call.
const ReservationTTL = 15 * time.Minute

var hundred = decimal.NewFromInt(100)

// Matches: semua field non-nil harus cocok. Satu rule lolos hanya kalau
// SEMUA condition row-nya lolos (lihat ruleMatches).
func (c RuleCondition) Matches(v Variant, quantity int, user UserContext, promoCode string, now time.Time) bool {
	if c.ProductID != nil && *c.ProductID != v.ProductID {
		return false
	}
	if c.VariantID != nil && *c.VariantID != v.ID {
		return false
	}
	if c.MinQuantity != nil && quantity < *c.MinQuantity {
		return false
	}
	if c.UserTier != nil && *c.UserTier != user.Tier {
		return false
	}
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return false
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return false
	}
	// Rule ber-promo wajib dapat kode yang cocok; tanpa kode = tidak lolos.
	if c.PromoCode != nil && (promoCode == "" || promoCode != *c.PromoCode) {
		return false
	}
	return true
}

func ruleMatches(r PricingRule, v Variant, quantity int, user UserContext, promoCode string, now time.Time) bool {
	if !r.IsActive {
		return false
	}
	for _, c := range r.Conditions {
		if !c.Matches(v, quantity, user, promoCode, now) {
			return false
		}
	}
	return true
}

// ruleDiscount menjumlahkan kontribusi semua action satu rule terhadap
// subtotal line. Tidak ada pembulatan di sini.
func ruleDiscount(r PricingRule, totalBefore decimal.Decimal) decimal.Decimal {
	d := decimal.Zero
	for _, a := range r.Actions {
		switch a.Type {
		case DiscountPercent:
			d = d.Add(totalBefore.Mul(a.Value).Div(hundred))
		case DiscountAbsolute:
			d = d.Add(a.Value)
		}
	}
	return d
}

// CalculatePrice = pricing engine. Pure: tidak menyentuh DB atau lock;
// caller yang fetch rules fresh tiap call (tidak pernah di-cache).
//
// Urutan: rules diurutkan priority ascending, kontribusi tiap rule yang
// match dijumlahkan ke total discount (rule dengan kontribusi <= 0
// dilewati), discount di-clamp ke total_before, dan satu-satunya
// pembulatan ada di pembagian final unit price (hindari drift kumulatif).
func CalculatePrice(v Variant, basePrice decimal.Decimal, quantity int, user UserContext, promoCode string, rules []PricingRule, now time.Time) PriceBreakdown {
	qty := decimal.NewFromInt(int64(quantity))
	totalBefore := basePrice.Mul(qty)

	sorted := append([]PricingRule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	totalDiscount := decimal.Zero
	var applied []AppliedRule
	for _, r := range sorted {
		if !ruleMatches(r, v, quantity, user, promoCode, now) {
			continue
		}
		d := ruleDiscount(r, totalBefore)
		if !d.IsPositive() {
			continue
		}
		totalDiscount = totalDiscount.Add(d)
		applied = append(applied, AppliedRule{RuleID: r.ID, Name: r.Name, Amount: d})
	}

	// harga final tidak boleh negatif
	if totalDiscount.GreaterThan(totalBefore) {
		totalDiscount = totalBefore
	}
	totalAfter := totalBefore.Sub(totalDiscount)

	return PriceBreakdown{
		BasePrice:      basePrice,
		FinalUnitPrice: totalAfter.DivRound(qty, 2),
		Quantity:       quantity,
		TotalBefore:    totalBefore,
		TotalDiscount:  totalDiscount,
		TotalAfter:     totalAfter,
		Applied:        applied,
	}
}
