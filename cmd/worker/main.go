package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ariefcatur/go-shop-reserve.git/internal/config"
	kafkax "github.com/ariefcatur/go-shop-reserve.git/internal/kafka"
	"github.com/ariefcatur/go-shop-reserve.git/internal/postgres"
	"github.com/ariefcatur/go-shop-reserve.git/internal/projector"
	"github.com/ariefcatur/go-shop-reserve.git/internal/redisx"
	"github.com/ariefcatur/go-shop-reserve.git/internal/shop"
	"github.com/ariefcatur/go-shop-reserve.git/internal/sweep"
	"github.com/joho/godotenv"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// workCtx mati duluan supaya sweeper/consumer berhenti publish
	// sebelum producer di-flush & ditutup
	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer: reservation.released
	pRel := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicReservationReleased, 1024)
	pRel.Start(ctx)

	// Sweeper reservasi kedaluwarsa
	sw := &sweep.Sweeper{
		Repo:        &shop.SweepRepo{DB: db},
		Redis:       rdb,
		Producer:    pRel,
		Interval:    cfg.SweepInterval,
		ServiceName: cfg.ServiceName + "-sweeper",
	}
	go func() {
		log.Printf("sweeper started: interval=%s", cfg.SweepInterval)
		sw.Run(workCtx)
	}()

	// Projector: consume order.created -> cache status order
	svc := &projector.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-projector",
	}
	group := getenv("PROJECTOR_GROUP", "shop-projector")
	workers := mustAtoi(os.Getenv("PROJECTOR_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, shop.TopicOrderCreated, workers)

	go func() {
		log.Printf("projector consumer started: group=%s topic=%s workers=%d", group, shop.TopicOrderCreated, workers)
		if err := cons.Start(workCtx, svc.HandleOrderCreated); err != nil {
			log.Printf("consumer exit: %v", err)
			cancelWork()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down worker...")
	cancelWork()
	time.Sleep(500 * time.Millisecond)
	pRel.Close()      // flush sisa event
	pRel.WaitClosed() // drain
	cancel()
}
