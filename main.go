package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mach-lagbe/config"
	"mach-lagbe/consumers"
	"mach-lagbe/controllers"
	"mach-lagbe/database"
	"mach-lagbe/rabbitmq"
	"mach-lagbe/routes"
	"mach-lagbe/services"
	"mach-lagbe/sessions"
	"mach-lagbe/utils"
)

const shutdownTimeout = 10 * time.Second

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.LogJSON {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// newRevoker uses Redis when configured so logouts hold across instances.
func newRevoker(ctx context.Context, cfg *config.Config, log *logrus.Logger) (sessions.Revoker, func()) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, revoked tokens are kept in memory")
		return sessions.NewMemoryRevoker(), func() {}
	}
	revoker, err := sessions.NewRedisRevoker(ctx, cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Redis initialization failed")
	}
	log.Info("Redis connected")
	return revoker, func() {
		if err := revoker.Close(); err != nil {
			log.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

func main() {
	cfg := config.LoadConfig()
	log := newLogger(cfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWTSecret == "secret" {
			log.Fatal("JWT_SECRET must be set in production")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.OpenStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Database initialization failed")
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}()

	revoker, closeRevoker := newRevoker(ctx, cfg, log)
	defer closeRevoker()

	auth := services.NewAuthService(store.Users(), utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL), revoker, log)
	feed := controllers.NewOrderFeed(auth, cfg.CORSOrigins, log)
	defer feed.Close()

	// Without a broker, order events go straight to the websocket feed.
	var events services.IEventPublisher = feed
	if cfg.RabbitMQURL != "" {
		rmq, err := rabbitmq.NewRabbitMQ(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("RabbitMQ initialization failed")
		}
		defer rmq.Close()

		if err := rmq.SetupQueues(); err != nil {
			log.WithError(err).Fatal("Failed to setup RabbitMQ queues")
		}

		consumerCh, err := rmq.Conn.Channel()
		if err != nil {
			log.WithError(err).Fatal("Failed to open consumer channel")
		}
		if err := consumers.NewOrderConsumer(consumerCh, cfg, feed, log).Start(ctx); err != nil {
			log.WithError(err).Fatal("Failed to start order consumer")
		}
		events = rmq
		log.WithField("exchange", cfg.OrderExchange).Info("RabbitMQ connected")
	}

	router := routes.NewRouter(routes.Deps{
		Config: cfg,
		Log:    log,
		Store:  store,
		Auth:   auth,
		Fish:   services.NewFishService(store.Fish(), log),
		Orders: services.NewOrderService(store, events, services.OrderOptions{
			DeliveryFee: cfg.DeliveryFee,
			PriceCheck:  cfg.OrderPriceCheck,
		}, log),
		Feed: feed,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "env": cfg.Env}).Info("Mach Lagbe API starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
