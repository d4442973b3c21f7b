package shop

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated        = "OrderCreated"
	EventReservationReleased = "ReservationReleased"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "shop-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id / cart_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload tipe per event ----

type OrderCreatedPayload struct {
	OrderID string `json:"order_id"`
	CartID  string `json:"cart_id"`
	UserID  string `json:"user_id,omitempty"`
	Total   string `json:"total"`
	Status  string `json:"status"`
}

type ReservationReleasedPayload struct {
	CartID  string          `json:"cart_id"`
	Holds   []ReclaimedHold `json:"holds"`
	SweptAt time.Time       `json:"swept_at"`
}
