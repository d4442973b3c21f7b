package shop

import "errors"

var (
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrCartNotFound       = errors.New("cart not found")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrReservedMismatch   = errors.New("reserved quantity mismatch")
	ErrReservationExpired = errors.New("reservation expired")
	ErrEmptyCart          = errors.New("cart is empty")
)
