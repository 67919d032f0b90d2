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

	"almacen-service/config"
	"almacen-service/internal/api"
	"almacen-service/internal/broker"
	"almacen-service/internal/mirror"
	"almacen-service/internal/redisclient"
	"almacen-service/internal/service"
	"almacen-service/internal/store"
	"almacen-service/internal/store/memory"
	"almacen-service/internal/store/postgres"
	"almacen-service/internal/util"
	"almacen-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting almacen service")

	tp, err := util.InitTracer("almacen-service", cfg.Server.Env, cfg.Observ.JaegerEndpoint)
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

	var ds store.DataStore
	if cfg.Database.URL != "" {
		pg, err := postgres.NewStore(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		ds = pg
		log.Println("Database connected")
	} else {
		ds = memory.NewSeeded()
		log.Println("DATABASE_URL not set, using seeded in-memory store")
	}
	defer ds.Close()

	m := mirror.New()
	ctx := context.Background()
	if err := m.Load(ctx, ds); err != nil {
		log.Fatalf("Failed to load store mirror: %v", err)
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales)
	defer producer.Close()
	eventPublisher := broker.NewEventPublisher(producer)
	log.Println("Kafka producer initialized")

	var guard service.IdempotencyGuard
	var stockCache service.StockCache
	idemTTL := time.Duration(cfg.Business.IdempotencyTTLSeconds) * time.Second
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, idemTTL)
	if err != nil {
		log.Printf("Redis unavailable, stock cache and idempotency disabled: %v", err)
	} else {
		defer redisClient.Close()
		guard = redisClient
		stockCache = redisClient
		if err := redisClient.SyncCatalog(ctx, m.Products()); err != nil {
			log.Printf("Failed to sync stock levels to Redis: %v", err)
		}
		log.Println("Redis connected")
	}

	carts := service.NewCartService(m)
	ledgerService := service.NewLedgerService(ds, m, eventPublisher)
	catalogService := service.NewCatalogService(ds, m, eventPublisher, stockCache, cfg.Business.DefaultAdjustReason)
	saleService := service.NewSaleService(ds, m, carts, ledgerService, eventPublisher, stockCache, guard)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	alertConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales, cfg.Kafka.ConsumerGroup)
	alertWorker := worker.NewStockAlertWorker(alertConsumer, m)
	go func() {
		if err := alertWorker.Start(workerCtx); err != nil {
			log.Printf("Stock alert worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(carts, saleService, catalogService, ledgerService, m)
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
	alertWorker.Stop()

	log.Println("Server exited")
}
