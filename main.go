// main.go
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"transit-booking/cmd"
	"transit-booking/internal/data/repository"
	"transit-booking/internal/events"
	"transit-booking/internal/usecase"
	"transit-booking/internal/wire"
	"transit-booking/internal/worker"
	"transit-booking/pkg/database"
	"transit-booking/pkg/dedup"
	"transit-booking/pkg/identity"
	"transit-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connected successfully")

	// Redis backs the webhook dedup fast path. The engine stays correct
	// without it, so a connection failure only disables the fast path.
	// The interface stays nil (not a typed nil) when Redis is down.
	var deduper usecase.DeliveryChecker
	redisClient, err := dedup.NewClient(ctx, config.Redis.Addr, config.Redis.Password, config.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, webhook dedup fast path disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		deduper = dedup.NewDeduper(redisClient)
		logger.Info("Redis connected successfully")
	}

	publisher := events.NewAMQPPublisher(config.Events.BrokerURL, logger)
	verifier := identity.NewHTTPVerifier(config.Identity.ProviderURL, config.Identity.Timeout)

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	// Background reclaim of expired holds
	sweeper := worker.NewSweeper(repos, worker.SweeperConfig{
		Interval:  config.Reservation.SweepInterval,
		BatchSize: config.Reservation.SweepBatchSize,
	}, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	// Wire all dependencies
	app := wire.Wiring(repos, config, publisher, deduper, verifier, logger)

	// Start server
	logger.Info("Starting HTTP server", zap.String("port", config.App.Port))

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
}
