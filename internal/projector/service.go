package projector

import (
	"context"
	"encoding/json"
	"fmt"

	kafkax "github.com/ariefcatur/go-shop-reserve.git/internal/kafka"
	"github.com/ariefcatur/go-shop-reserve.git/internal/redisx"
	"github.com/ariefcatur/go-shop-reserve.git/internal/shop"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service meng-consume order.created dan memelihara cache status order di
// Redis, jadi GET /orders/{id} bisa jawab tanpa ke DB.
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderCreated dipasang sebagai handler consumer.
func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shop.EventOrderCreated {
		return nil // ignore
	}

	// dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	exists, _ := redisx.Exists(ctx, s.Redis, dkey)
	if exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[shop.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	body, _ := json.Marshal(map[string]string{"status": p.Status, "total": p.Total})
	key := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	return s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}
