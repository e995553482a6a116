package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andreasstove999/retail-backend/internal/auth"
	"github.com/andreasstove999/retail-backend/internal/cart"
	"github.com/andreasstove999/retail-backend/internal/catalog"
	"github.com/andreasstove999/retail-backend/internal/config"
	"github.com/andreasstove999/retail-backend/internal/db"
	"github.com/andreasstove999/retail-backend/internal/events"
	"github.com/andreasstove999/retail-backend/internal/httpapi"
	"github.com/andreasstove999/retail-backend/internal/logging"
	"github.com/andreasstove999/retail-backend/internal/metrics"
	"github.com/andreasstove999/retail-backend/internal/order"
)

func main() {
	cfg := config.Load()
	logger := logging.New("retail-backend", cfg.LogLevel)
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	var publisher order.Publisher
	if cfg.RabbitURL != "" {
		conn := events.MustDialRabbit(cfg.RabbitURL)
		defer conn.Close()

		pub, err := events.NewPublisher(conn)
		if err != nil {
			logger.Fatal("rabbitmq publisher", zap.Error(err))
		}
		defer pub.Close()
		publisher = pub
	} else {
		logger.Info("RABBIT_URL not set, order events disabled")
	}

	locks := cart.NewUserLocks()

	catalogRepo := catalog.NewPostgresRepository(pool)
	catalogSvc := catalog.NewService(catalogRepo)

	cartRepo := cart.NewPostgresRepository(pool)
	cartSvc := cart.NewService(cartRepo, catalogRepo, locks, logger)

	orderRepo := order.NewPostgresRepository(pool)
	workflow := order.NewWorkflow(pool, orderRepo, cartRepo, catalogRepo,
		publisher, locks, logger, cfg.LockTimeout)

	authRepo := auth.NewPostgresRepository(pool)
	tokenStore := auth.NewRedisTokenStore(redisClient, cfg.TokenTTL)
	authSvc := auth.NewService(authRepo, tokenStore, logger)

	m := metrics.New()

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Auth:     httpapi.NewAuthHandler(authSvc),
		Catalog:  httpapi.NewCatalogHandler(catalogSvc),
		Cart:     httpapi.NewCartHandler(cartSvc),
		Order:    httpapi.NewOrderHandler(workflow),
		Resolver: authSvc,
		Metrics:  m,

		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
