package redisx

import "time"

const (
	// Cache status order: order_status:{order_id} -> {"status": "...", "total": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Leader lock sweep reservation kedaluwarsa; cuma satu sweeper per store.
	KeySweepLock = "sweep:reservations:lock"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
