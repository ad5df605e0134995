package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/wasel-app/wasel/api"
	"github.com/wasel-app/wasel/config"
	"github.com/wasel-app/wasel/internal/bootstrap"
	"github.com/wasel-app/wasel/internal/cache"
	"github.com/wasel-app/wasel/internal/kafka"
	"github.com/wasel-app/wasel/internal/notify"
	"github.com/wasel-app/wasel/internal/repository"
	"github.com/wasel-app/wasel/internal/service/bookings"
	"github.com/wasel-app/wasel/internal/service/direct"
	"github.com/wasel-app/wasel/internal/service/marketplace"
	"github.com/wasel-app/wasel/internal/service/offers"
	"github.com/wasel-app/wasel/internal/service/trips"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.OpenRequestsCacheTTLSecs)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	notifier := notify.NewKafkaNotifier(producer, cfg.Kafka.NotificationsTopic)

	tripRepo := repository.NewTripRepository(pool)
	offerRepo := repository.NewOfferRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	profileRepo := repository.NewCarrierProfileRepository(pool)

	handlers := api.Handlers{
		Trips:    api.NewTripHandler(trips.NewTripService(tripRepo, redisCache, notifier)),
		Offers:   api.NewOfferHandler(offers.NewOfferService(offerRepo, tripRepo, redisCache, notifier)),
		Direct:   api.NewDirectHandler(direct.NewDirectService(bookingRepo, tripRepo, notifier)),
		Bookings: api.NewBookingHandler(bookings.NewBookingService(bookingRepo, tripRepo, notifier)),
		Matching: api.NewMatchingHandler(marketplace.NewMatchingService(tripRepo, profileRepo, redisCache)),
	}

	if err := bootstrap.Run(ctx, cfg, handlers); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
