package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ignite/engage-tracker/internal/config"
	"github.com/ignite/engage-tracker/internal/journey"
	"github.com/ignite/engage-tracker/internal/pkg/logger"
	"github.com/ignite/engage-tracker/internal/store"
	"github.com/ignite/engage-tracker/internal/tracking"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	applyLogLevel(cfg.Logging)

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.Lifetime())

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatalf("ping database: %v", err)
	}
	cancel()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			// Redis only backs the QR cache and first-touch gate; run without it.
			logger.Warn("redis unavailable, continuing without cache", "addr", cfg.Redis.Addr, "error", err)
			redisClient = nil
		}
	}

	var pub *tracking.Publisher
	if cfg.Analytics.Enabled {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Fatalf("aws config: %v", err)
		}
		pub = tracking.NewPublisher(sqs.NewFromConfig(awsCfg), cfg.Analytics.QueueURL)
	}

	pages, err := tracking.NewPages()
	if err != nil {
		log.Fatalf("parse page templates: %v", err)
	}

	st := store.New(db)
	handler := tracking.NewHandler(
		st,
		journey.NewEnroller(st),
		pub,
		tracking.NewFirstTouchGate(redisClient),
		tracking.NewQRCache(redisClient),
		pages,
	)

	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("tracking service listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down tracking service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	db.Close()
	if redisClient != nil {
		redisClient.Close()
	}
}

func applyLogLevel(cfg config.LoggingConfig) {
	switch cfg.Level {
	case "debug":
		logger.SetLevel(logger.DEBUG)
	case "warn":
		logger.SetLevel(logger.WARN)
	case "error":
		logger.SetLevel(logger.ERROR)
	default:
		logger.SetLevel(logger.INFO)
	}
	if cfg.RedactPII != nil {
		logger.SetRedactPII(*cfg.RedactPII)
	}
}
