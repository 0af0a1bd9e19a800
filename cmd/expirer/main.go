package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gotix/internal/clock"
	"gotix/internal/config"
	"gotix/internal/database"
	"gotix/internal/expiration"
	"gotix/internal/logger"
	"gotix/internal/messaging"
	"gotix/internal/repository"
	"gotix/internal/service"
)

// The expirer runs both halves of the expiration pipeline: the one-shot
// trigger armed from ticket.reserved messages and the periodic sweep that
// catches anything the trigger missed.
func main() {
	cfg := config.Load()
	cfg.NATS.ClientID = getEnv("NATS_CLIENT_ID", "gotix-expirer")
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", "error", err)
	}
	defer natsClient.Close()

	repos := repository.NewRepositories(db)
	clk := clock.NewSystem()
	tickets := service.NewTicketService(repos.Tickets, repos.Events, repos.Users, natsClient, clk, cfg.ReservationTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger := expiration.NewTrigger(tickets, natsClient, clk)
	if err := trigger.Start(ctx); err != nil {
		logger.Fatal("Failed to start expiration trigger", "error", err)
	}

	sweeper := expiration.NewSweeper(tickets, clk, cfg.SweepInterval, cfg.SweepBatchSize)
	sweeper.Start(ctx)

	logger.Get().Info("Expirer started",
		"reservation_timeout", cfg.ReservationTimeout.String(),
		"sweep_interval", cfg.SweepInterval.String(),
		"sweep_batch_size", cfg.SweepBatchSize)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down expirer...")

	sweeper.Stop()
	trigger.Stop()
	cancel()

	logger.Get().Info("Expirer stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
