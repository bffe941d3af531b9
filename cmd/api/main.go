// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/your-org/cashback-cart/internal/config"
	"github.com/your-org/cashback-cart/internal/domain/cart"
	"github.com/your-org/cashback-cart/internal/gateway"
	"github.com/your-org/cashback-cart/internal/infrastructure/cache/redis"
	"github.com/your-org/cashback-cart/internal/interfaces/http"
	"github.com/your-org/cashback-cart/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger := logger.New(cfg)
	appLogger.Infof("Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	// Connect to Redis
	redisClient, err := redis.NewConnection(cfg)
	if err != nil {
		appLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	if err := redisClient.Health(); err != nil {
		appLogger.Fatalf("Redis health check failed: %v", err)
	}
	appLogger.Info("Redis connection established")

	// Marketplace gateway and per-user cart engines
	gatewayClient := gateway.NewClient(cfg, appLogger)
	snapshotCache := redis.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL)
	manager := cart.NewManager(gatewayClient, snapshotCache, appLogger, cfg.Gateway.RefreshTimeout)

	// Create and start HTTP server
	server := http.NewServer(cfg, manager, redisClient.GetClient(), appLogger)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			appLogger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down gracefully")

	// Give server 30 seconds to shutdown gracefully
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLogger.Errorf("Failed to shutdown HTTP server gracefully: %v", err)
	}

	appLogger.Info("Server shutdown completed")
}
