package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/acai_cart/internal/catalog"
	"github.com/fjod/acai_cart/internal/config"
	h "github.com/fjod/acai_cart/internal/http"
	"github.com/fjod/acai_cart/internal/notify"
	"github.com/fjod/acai_cart/internal/order"
	"github.com/fjod/acai_cart/internal/repository"
	"github.com/fjod/acai_cart/internal/session"
	"github.com/fjod/acai_cart/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	mongoDB, err := catalog.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return err
	}
	defer mongoDB.Client().Disconnect(context.Background())

	source := catalog.NewMongoSource(mongoDB, log.Named("catalog"))
	if err := source.CreateIndexes(ctx); err != nil {
		return err
	}
	products := catalog.NewService(source, cfg.CatalogCacheTTL, log.Named("catalog"))
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	opts := session.Options{
		Store:     session.NewRedisStateStore(redisClient, cfg.SessionTTL),
		Builder:   order.NewBuilder(),
		Simulator: order.NewSimulator(cfg.StatusTick),
		Logger:    log.Named("session"),
	}

	if cfg.DBHost != "" {
		archive, err := repository.NewOrderRepository(ctx, &repository.Credentials{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
		})
		if err != nil {
			return err
		}
		defer archive.Close()
		if err := archive.RunMigrations(cfg.MigrationsPath); err != nil {
			return err
		}
		opts.Archive = archive
		log.Info("order archive enabled", zap.String("host", cfg.DBHost))
	}

	if len(cfg.KafkaBrokers) > 0 {
		publisher := notify.NewKafkaPublisher(notify.NewKafkaWriter(cfg.OrderEventsTopic, cfg.KafkaBrokers...))
		defer publisher.Close()
		opts.Publisher = publisher
		log.Info("order events enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.OrderEventsTopic))
	}

	sessions := session.NewRegistry(opts)
	go sessions.Run()
	defer sessions.Close()

	router := h.NewRouter(h.RouterConfig{
		Catalog:        products,
		Sessions:       sessions,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log.Named("http"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("storefront starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited")
	return nil
}
