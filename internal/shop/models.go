package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	Name        string
	Description string
	BasePrice   decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Variant = satu SKU yang bisa dijual, dengan counter stok & reservasi.
// Counter hanya boleh berubah di dalam transaksi yang pegang lock row-nya.
type Variant struct {
	ID               string
	ProductID        string
	SKU              string
	StockQuantity    int
	ReservedQuantity int
}

func (v Variant) Available() int { return v.StockQuantity - v.ReservedQuantity }

type Cart struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

// CartItem = reservasi aktif: hold qty atas satu variant + snapshot harga
// yang dibekukan saat add/update. Unik per (cart, variant).
type CartItem struct {
	ID                 string
	CartID             string
	VariantID          string
	Quantity           int
	ReservedUntil      time.Time
	UnitPriceSnapshot  decimal.Decimal
	DiscountSnapshot   decimal.Decimal
	FinalPriceSnapshot decimal.Decimal
}

const OrderStatusConfirmed = "confirmed"

type Order struct {
	ID          string
	UserID      string
	TotalAmount decimal.Decimal
	Status      string
	CreatedAt   time.Time
}

type OrderLine struct {
	ID         string
	OrderID    string
	VariantID  string
	Quantity   int
	UnitPrice  decimal.Decimal
	Discount   decimal.Decimal
	FinalPrice decimal.Decimal
}

type DiscountType string

const (
	DiscountPercent  DiscountType = "percent"
	DiscountAbsolute DiscountType = "absolute"
)

// PricingRule: rule diskon berprioritas. Field condition yang nil = wildcard.
type PricingRule struct {
	ID         string
	Name       string
	IsActive   bool
	Priority   int
	Conditions []RuleCondition
	Actions    []RuleAction
}

type RuleCondition struct {
	ProductID   *string
	VariantID   *string
	MinQuantity *int
	UserTier    *string
	StartAt     *time.Time
	EndAt       *time.Time
	PromoCode   *string
}

type RuleAction struct {
	Type  DiscountType
	Value decimal.Decimal
}

// UserContext dari boundary; Tier kosong = anonim.
type UserContext struct {
	Tier string
}

type AppliedRule struct {
	RuleID string          `json:"rule_id"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type PriceBreakdown struct {
	BasePrice      decimal.Decimal `json:"base_price"`
	FinalUnitPrice decimal.Decimal `json:"final_unit_price"`
	Quantity       int             `json:"quantity"`
	TotalBefore    decimal.Decimal `json:"total_before_discount"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	TotalAfter     decimal.Decimal `json:"total_after_discount"`
	Applied        []AppliedRule   `json:"applied_rules"`
}
