package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/ticketbooking/config"
	"github.com/Domenick1991/ticketbooking/internal/bootstrap"
	"github.com/Domenick1991/ticketbooking/internal/cache"
	"github.com/Domenick1991/ticketbooking/internal/kafka"
	"github.com/Domenick1991/ticketbooking/internal/logging"
	"github.com/Domenick1991/ticketbooking/internal/payment"
	"github.com/Domenick1991/ticketbooking/internal/repository"
	"github.com/Domenick1991/ticketbooking/internal/service/booking"
	"github.com/Domenick1991/ticketbooking/internal/service/catalog"
	"github.com/Domenick1991/ticketbooking/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfgPath = ""
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logging.Init(cfg.Log.Level, cfg.Log.JSON)
	log := logrus.WithField("service", "ticketbooking")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	defer closeStore()

	if cfg.Seed.Enabled {
		if err := store.Seed(ctx, cfg.Seed.Tiers); err != nil {
			log.WithError(err).Fatal("seed tiers")
		}
	}

	var tierCache catalog.Cache
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CatalogCacheTTL())
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable, catalog reads will fall through to the store")
		}
		tierCache = redisCache
	}
	catalogService := catalog.NewCatalogService(store, tierCache)

	gate, err := payment.NewRandomGate(cfg.Booking.PaymentFailureRate, nil)
	if err != nil {
		log.WithError(err).Fatal("payment gate")
	}

	opts := []booking.BookingServiceOption{
		booking.WithCatalog(catalogService),
		booking.WithTxTimeout(cfg.Booking.TxTimeout()),
		booking.WithDefaultUserID(cfg.Booking.DefaultUserID),
	}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka unreachable, booking events may be lost")
		}
		opts = append(opts,
			booking.WithProducer(producer, cfg.Kafka.BookingTopic),
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		)
	}
	bookingService := booking.NewBookingService(store, gate, opts...)

	if err := bootstrap.Run(ctx, cfg, log, catalogService, bookingService); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Entry) (repository.Store, func(), error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on exit")
		return repository.NewMemoryStore(), func() {}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	if cfg.Database.Migrate {
		if err := migrations.Apply(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}

	isolation, err := repository.ParseIsolationLevel(cfg.Database.Isolation)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	store := repository.NewPGStore(pool, repository.TxOptions{
		Isolation:   isolation,
		LockTimeout: cfg.Database.LockTimeout(),
	})
	log.WithField("isolation", isolation).Info("connected to postgres")
	return store, pool.Close, nil
}
