package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billiard-pos/config"
	"billiard-pos/internal/api"
	"billiard-pos/internal/broker"
	"billiard-pos/internal/notify"
	"billiard-pos/internal/service"
	"billiard-pos/internal/store"
	"billiard-pos/internal/util"
	"billiard-pos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting billiard POS service")

	tp, err := util.InitTracer("billiard-pos", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
	}
	log.Println("Redis connected")

	notifier := notify.NewRedisNotifier(rdb, cfg.Redis.NotifyChannel, logger)

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicReports)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	pricing := service.NewPricingService(db, cfg.Business.PricingCacheTTL, cfg.Business.DefaultHourlyRate)
	tableService := service.NewTableService(db, pricing, notifier, eventPublisher)
	orderService := service.NewOrderService(db, notifier)
	tillService := service.NewTillService(db, notifier, eventPublisher)
	productService := service.NewProductService(db, notifier)
	userService := service.NewUserService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	reportConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReports, cfg.Kafka.ConsumerGroup)
	reportWorker := worker.NewReportWorker(reportConsumer, cfg.Business.ReportWebhookURL, cfg.Business.VenueName)
	go func() {
		if err := reportWorker.Start(workerCtx); err != nil {
			log.Printf("Report worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(tableService, orderService, tillService, productService, userService, pricing, notifier)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	reportWorker.Stop()

	log.Println("Server exited")
}
