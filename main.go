package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/tonight/internal/config"
	"github.com/mauv0809/tonight/internal/database"
	server "github.com/mauv0809/tonight/internal/http"
	"github.com/mauv0809/tonight/internal/matchmaking"
	"github.com/mauv0809/tonight/internal/metrics"
	"github.com/mauv0809/tonight/internal/notifier"
	pubsubnotifier "github.com/mauv0809/tonight/internal/notifier/pubsub"
	"github.com/mauv0809/tonight/internal/notifier/slack"
	"github.com/mauv0809/tonight/internal/participant"
	"github.com/mauv0809/tonight/internal/pubsub"
)

func main() {
	// Start profiling timer
	startTime := time.Now()
	log.SetFormatter(log.JSONFormatter)
	cfg := config.Load()
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("Unknown log level, keeping default", "level", cfg.LogLevel)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Failed to load timezone %q: %s", cfg.Timezone, err)
	}

	db, dbTeardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	dbInitDuration := time.Since(startTime)
	log.Info("Database initialization time recorded", "duration_ms", dbInitDuration.Milliseconds())
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer func() {
		log.Info("Closing database connection")
		dbTeardown()
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metricsSvc := metrics.NewService()
	metricsHandler := metrics.NewMetricsHandler()
	participants := participant.New(db)

	notifiers := notifier.Multi{slack.NewNotifier(cfg.Slack.Token, cfg.Slack.ChannelID, metricsSvc)}
	var pubsubClient pubsub.PubSubClient
	if cfg.PubSubEnabled() {
		pubsubClient, err = pubsub.New(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			log.Fatalf("Failed to initialize pubsub: %s", err)
		}
		defer pubsubClient.Close()
		notifiers = append(notifiers, pubsubnotifier.NewNotifier(pubsubClient, cfg.PubSub.OutcomesTopic, metricsSvc))
	} else {
		log.Info("Pub/Sub is not configured, push bookings and outcome events are disabled")
	}

	engine := matchmaking.New(db, participants, notifiers, metricsSvc,
		matchmaking.WithLocation(loc),
		matchmaking.WithMaxAttempts(cfg.MaxMatchAttempts),
	)

	s := server.NewServer(participants, engine, metricsHandler, cfg, pubsubClient)
	s.StartJanitor(ctx)

	// --- Record startup time ---
	startupDuration := time.Since(startTime)
	metricsSvc.SetStartupTime(startupDuration.Seconds())
	log.Info("Startup time recorded", "duration_ms", startupDuration.Milliseconds())

	// --- Graceful shutdown setup ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info("Server started", "port", cfg.Port, "timezone", cfg.Timezone)
		serverErrors <- srv.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server error", "error", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", "signal", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown failed", "error", err)
		} else {
			log.Info("Server gracefully stopped")
		}
	}

	log.Info("Server process shutting down")
}
