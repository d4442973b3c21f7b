package shop

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string        { return &s }
func intPtr(i int) *int              { return &i }
func timePtr(t time.Time) *time.Time { return &t }

func testVariant() Variant {
	return Variant{ID: "var-1", ProductID: "prod-1", SKU: "TS-RED-M", StockQuantity: 100}
}

func percentRule(id string, priority int, value string, conds ...RuleCondition) PricingRule {
	return PricingRule{
		ID: id, Name: id, IsActive: true, Priority: priority,
		Conditions: conds,
		Actions:    []RuleAction{{Type: DiscountPercent, Value: dec(value)}},
	}
}

func absoluteRule(id string, priority int, value string, conds ...RuleCondition) PricingRule {
	return PricingRule{
		ID: id, Name: id, IsActive: true, Priority: priority,
		Conditions: conds,
		Actions:    []RuleAction{{Type: DiscountAbsolute, Value: dec(value)}},
	}
}

func TestCalculatePrice_NoRules(t *testing.T) {
	p := CalculatePrice(testVariant(), dec("10"), 10, UserContext{}, "", nil, time.Now())

	if !p.TotalBefore.Equal(dec("100")) {
		t.Errorf("expected total before 100, got %s", p.TotalBefore)
	}
	if !p.TotalDiscount.IsZero() {
		t.Errorf("expected zero discount, got %s", p.TotalDiscount)
	}
	if !p.TotalAfter.Equal(dec("100")) {
		t.Errorf("expected total after 100, got %s", p.TotalAfter)
	}
	if !p.FinalUnitPrice.Equal(dec("10.00")) {
		t.Errorf("expected unit price 10.00, got %s", p.FinalUnitPrice)
	}
	if len(p.Applied) != 0 {
		t.Errorf("expected no applied rules, got %d", len(p.Applied))
	}
}

func TestCalculatePrice_PercentageRule(t *testing.T) {
	rules := []PricingRule{
		percentRule("bulk-10", 10, "10", RuleCondition{MinQuantity: intPtr(5)}),
	}
	p := CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "", rules, time.Now())

	if !p.TotalBefore.Equal(dec("100")) {
		t.Errorf("expected total before 100, got %s", p.TotalBefore)
	}
	if !p.TotalDiscount.Equal(dec("10")) {
		t.Errorf("expected discount 10, got %s", p.TotalDiscount)
	}
	if !p.TotalAfter.Equal(dec("90")) {
		t.Errorf("expected total after 90, got %s", p.TotalAfter)
	}
	if !p.FinalUnitPrice.Equal(dec("18.00")) {
		t.Errorf("expected unit price 18.00, got %s", p.FinalUnitPrice)
	}
	if len(p.Applied) != 1 || p.Applied[0].RuleID != "bulk-10" {
		t.Fatalf("expected bulk-10 applied, got %+v", p.Applied)
	}
}

func TestCalculatePrice_StackedRules(t *testing.T) {
	rules := []PricingRule{
		absoluteRule("flat-5", 20, "5"),
		percentRule("bulk-10", 10, "10"),
	}
	p := CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "", rules, time.Now())

	if !p.TotalDiscount.Equal(dec("15")) {
		t.Errorf("expected discount 15, got %s", p.TotalDiscount)
	}
	if !p.TotalAfter.Equal(dec("85")) {
		t.Errorf("expected total after 85, got %s", p.TotalAfter)
	}
	// urutan applied ikut priority ascending, bukan urutan input
	if len(p.Applied) != 2 || p.Applied[0].RuleID != "bulk-10" || p.Applied[1].RuleID != "flat-5" {
		t.Fatalf("expected [bulk-10 flat-5], got %+v", p.Applied)
	}
	if !p.Applied[0].Amount.Equal(dec("10")) || !p.Applied[1].Amount.Equal(dec("5")) {
		t.Errorf("unexpected applied amounts: %+v", p.Applied)
	}
}

func TestCalculatePrice_DiscountClampedToTotal(t *testing.T) {
	rules := []PricingRule{absoluteRule("huge", 10, "500")}
	p := CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "", rules, time.Now())

	if !p.TotalDiscount.Equal(dec("100")) {
		t.Errorf("expected discount clamped to 100, got %s", p.TotalDiscount)
	}
	if !p.TotalAfter.IsZero() {
		t.Errorf("expected total after 0, got %s", p.TotalAfter)
	}
	if !p.FinalUnitPrice.IsZero() {
		t.Errorf("expected unit price 0, got %s", p.FinalUnitPrice)
	}
}

func TestCalculatePrice_SkipsNonPositiveContribution(t *testing.T) {
	rules := []PricingRule{
		absoluteRule("zero", 10, "0"),
		percentRule("real", 20, "10"),
	}
	p := CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "", rules, time.Now())

	if len(p.Applied) != 1 || p.Applied[0].RuleID != "real" {
		t.Fatalf("expected only rule with positive contribution, got %+v", p.Applied)
	}
	if !p.TotalDiscount.Equal(dec("10")) {
		t.Errorf("expected discount 10, got %s", p.TotalDiscount)
	}
}

func TestCalculatePrice_InactiveRuleIgnored(t *testing.T) {
	r := percentRule("off", 10, "10")
	r.IsActive = false
	p := CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "", []PricingRule{r}, time.Now())

	if !p.TotalDiscount.IsZero() {
		t.Errorf("inactive rule must not discount, got %s", p.TotalDiscount)
	}
}

func TestCalculatePrice_MinQuantityBoundary(t *testing.T) {
	rules := []PricingRule{
		percentRule("bulk", 10, "10", RuleCondition{MinQuantity: intPtr(5)}),
	}

	p := CalculatePrice(testVariant(), dec("20"), 4, UserContext{}, "", rules, time.Now())
	if !p.TotalDiscount.IsZero() {
		t.Errorf("qty 4 below min 5 must not match, got discount %s", p.TotalDiscount)
	}

	p = CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "", rules, time.Now())
	if p.TotalDiscount.IsZero() {
		t.Error("qty 5 at min 5 must match")
	}
}

func TestCalculatePrice_RoundsOnlyAtFinalDivision(t *testing.T) {
	rules := []PricingRule{percentRule("seven", 10, "7")}
	p := CalculatePrice(testVariant(), dec("9.99"), 3, UserContext{}, "", rules, time.Now())

	// 29.97 * 7% = 2.0979, tanpa pembulatan per-rule
	if !p.TotalDiscount.Equal(dec("2.0979")) {
		t.Errorf("expected exact discount 2.0979, got %s", p.TotalDiscount)
	}
	if !p.TotalAfter.Equal(dec("27.8721")) {
		t.Errorf("expected exact total after 27.8721, got %s", p.TotalAfter)
	}
	// satu-satunya pembulatan: pembagian final unit price
	if !p.FinalUnitPrice.Equal(dec("9.29")) {
		t.Errorf("expected unit price 9.29, got %s", p.FinalUnitPrice)
	}
}

func TestCondition_PromoGating(t *testing.T) {
	rules := []PricingRule{
		percentRule("promo", 10, "10", RuleCondition{PromoCode: strPtr("SAVE10")}),
	}

	// tanpa kode: rule ber-promo tidak boleh lolos
	p := CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "", rules, time.Now())
	if !p.TotalDiscount.IsZero() {
		t.Errorf("promo rule without code must not apply, got %s", p.TotalDiscount)
	}

	// kode salah
	p = CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "WRONG", rules, time.Now())
	if !p.TotalDiscount.IsZero() {
		t.Errorf("promo rule with wrong code must not apply, got %s", p.TotalDiscount)
	}

	// kode cocok
	p = CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "SAVE10", rules, time.Now())
	if !p.TotalDiscount.Equal(dec("10")) {
		t.Errorf("promo rule with matching code must apply, got %s", p.TotalDiscount)
	}
}

func TestCondition_TimeWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cond := RuleCondition{
		StartAt: timePtr(now.Add(-time.Hour)),
		EndAt:   timePtr(now.Add(time.Hour)),
	}
	if !cond.Matches(testVariant(), 1, UserContext{}, "", now) {
		t.Error("now inside window must match")
	}
	if cond.Matches(testVariant(), 1, UserContext{}, "", now.Add(2*time.Hour)) {
		t.Error("now after window must not match")
	}
	if cond.Matches(testVariant(), 1, UserContext{}, "", now.Add(-2*time.Hour)) {
		t.Error("now before window must not match")
	}
}

func TestCondition_ProductAndVariantScope(t *testing.T) {
	v := testVariant()

	cond := RuleCondition{ProductID: strPtr("prod-1")}
	if !cond.Matches(v, 1, UserContext{}, "", time.Now()) {
		t.Error("matching product id must match")
	}
	cond = RuleCondition{ProductID: strPtr("prod-other")}
	if cond.Matches(v, 1, UserContext{}, "", time.Now()) {
		t.Error("other product id must not match")
	}

	cond = RuleCondition{VariantID: strPtr("var-1")}
	if !cond.Matches(v, 1, UserContext{}, "", time.Now()) {
		t.Error("matching variant id must match")
	}
	cond = RuleCondition{VariantID: strPtr("var-other")}
	if cond.Matches(v, 1, UserContext{}, "", time.Now()) {
		t.Error("other variant id must not match")
	}

	// semua field nil = wildcard
	if !(RuleCondition{}).Matches(v, 1, UserContext{}, "", time.Now()) {
		t.Error("empty condition must match anything")
	}
}

func TestCondition_UserTier(t *testing.T) {
	cond := RuleCondition{UserTier: strPtr("gold")}
	if !cond.Matches(testVariant(), 1, UserContext{Tier: "gold"}, "", time.Now()) {
		t.Error("gold tier must match")
	}
	if cond.Matches(testVariant(), 1, UserContext{Tier: "silver"}, "", time.Now()) {
		t.Error("silver tier must not match gold condition")
	}
	if cond.Matches(testVariant(), 1, UserContext{}, "", time.Now()) {
		t.Error("anonymous user must not match tier condition")
	}
}

func TestRule_AllConditionsMustMatch(t *testing.T) {
	r := percentRule("strict", 10, "10",
		RuleCondition{MinQuantity: intPtr(5)},
		RuleCondition{UserTier: strPtr("gold")},
	)

	if ruleMatches(r, testVariant(), 5, UserContext{}, "", time.Now()) {
		t.Error("rule must not match when one condition fails")
	}
	if !ruleMatches(r, testVariant(), 5, UserContext{Tier: "gold"}, "", time.Now()) {
		t.Error("rule must match when every condition passes")
	}
}

func TestCalculatePrice_MultiActionRule(t *testing.T) {
	r := PricingRule{
		ID: "combo", Name: "combo", IsActive: true, Priority: 10,
		Actions: []RuleAction{
			{Type: DiscountPercent, Value: dec("10")},
			{Type: DiscountAbsolute, Value: dec("2.50")},
		},
	}
	p := CalculatePrice(testVariant(), dec("20"), 5, UserContext{}, "", []PricingRule{r}, time.Now())

	// 10% dari 100 + 2.50 = 12.50, satu entry applied
	if !p.TotalDiscount.Equal(dec("12.50")) {
		t.Errorf("expected discount 12.50, got %s", p.TotalDiscount)
	}
	if len(p.Applied) != 1 || !p.Applied[0].Amount.Equal(dec("12.50")) {
		t.Fatalf("expected single applied entry of 12.50, got %+v", p.Applied)
	}
}
