package sweep

import (
	"context"
	"log"
	"time"

	kafkax "github.com/ariefcatur/go-shop-reserve.git/internal/kafka"
	"github.com/ariefcatur/go-shop-reserve.git/internal/redisx"
	"github.com/ariefcatur/go-shop-reserve.git/internal/shop"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Sweeper mengembalikan reservasi yang lewat TTL ke pool available.
// Jalan di interval tetap, disiplin locking sama dengan jalur request
// (lewat SweepRepo). Leader lock Redis menjamin maksimal satu sweep
// berjalan bersamaan terhadap satu store.
type Sweeper struct {
	Repo        *shop.SweepRepo
	Redis       *redis.Client
	Producer    *kafkax.Producer // publish reservation.released
	Interval    time.Duration
	ServiceName string
}

func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	// lock best-effort: kalau Redis lagi bermasalah tetap jalan, row lock
	// DB yang menjaga konsistensi; lock cuma mencegah kerja dobel.
	ok, err := s.Redis.SetNX(ctx, redisx.KeySweepLock, s.ServiceName, s.Interval).Result()
	if err == nil && !ok {
		return // sweeper lain pegang giliran
	}
	if err != nil {
		log.Printf("sweep: lock: %v", err)
	}

	holds, err := s.Repo.ReclaimExpired(ctx, time.Now().UTC())
	if err != nil {
		// non-fatal: log, tunggu tick berikutnya
		log.Printf("sweep: %v", err)
		return
	}
	if len(holds) == 0 {
		return
	}

	byCart := map[string][]shop.ReclaimedHold{}
	for _, h := range holds {
		byCart[h.CartID] = append(byCart[h.CartID], h)
	}
	now := time.Now().UTC()
	for cartID, hs := range byCart {
		ev := shop.Envelope{
			EventID:       uuid.NewString(),
			EventType:     shop.EventReservationReleased,
			EventVersion:  1,
			OccurredAt:    now,
			Producer:      s.ServiceName,
			CorrelationID: cartID,
			Payload: kafkax.MustMarshal(shop.ReservationReleasedPayload{
				CartID: cartID, Holds: hs, SweptAt: now,
			}),
		}
		s.Producer.Publish(shop.PartitionKey(cartID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(shop.EventReservationReleased)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
	log.Printf("sweep: reclaimed %d expired reservations across %d carts", len(holds), len(byCart))
}
