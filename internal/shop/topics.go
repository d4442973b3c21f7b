package shop

const (
	TopicOrderCreated        = "shop.order.created"
	TopicReservationReleased = "shop.reservation.released"
)

// Partition key = order_id / cart_id, supaya event satu entitas urut.
func PartitionKey(id string) []byte { return []byte(id) }
