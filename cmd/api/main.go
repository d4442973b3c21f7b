package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-shop-reserve.git/internal/config"
	"github.com/ariefcatur/go-shop-reserve.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-shop-reserve.git/internal/kafka"
	"github.com/ariefcatur/go-shop-reserve.git/internal/postgres"
	"github.com/ariefcatur/go-shop-reserve.git/internal/redisx"
	"github.com/ariefcatur/go-shop-reserve.git/internal/shop"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}
	if os.Getenv("SEED_DEMO") != "" {
		if err := postgres.SeedDemo(ctx, db); err != nil {
			log.Fatalf("seed: %v", err)
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicOrderCreated, 1024)
	prod.Start(ctx)

	// Repos & handlers
	sh := &httpx.ShopHandler{
		Carts:    &shop.CartRepo{DB: db},
		Checkout: &shop.CheckoutRepo{DB: db},
		Catalog:  &shop.CatalogRepo{DB: db},
		Producer: prod,
		Redis:    rdb,
		Service:  cfg.ServiceName,
	}
	ch := &httpx.CatalogHandler{
		Repo:  &shop.CatalogRepo{DB: db},
		Rules: &shop.RuleRepo{DB: db},
	}
	router := httpx.NewRouter()
	router.Route("/api/v1", func(api chi.Router) {
		sh.Register(api)
		ch.Register(api)
	})

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	prod.WaitClosed() // drain
	cancel()
}
