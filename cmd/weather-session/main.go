package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/weather-session/internal/api/http"
	"github.com/i474232898/weather-session/internal/config"
	"github.com/i474232898/weather-session/internal/scheduler"
	"github.com/i474232898/weather-session/internal/store"
	"github.com/i474232898/weather-session/internal/weather/providers"
)

func main() {
	// Load configuration (reads .env first).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// HTTP client for the provider's single round trip per fetch.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey, cfg.WeatherBaseURL)

	// One session store for the lifetime of the process.
	weatherStore := store.New(provider,
		store.WithHistoryLimit(cfg.HistoryLimit),
		store.WithUnits(cfg.DefaultUnits),
	)

	// Optional periodic refresh of the location on display.
	sched := scheduler.New(weatherStore, cfg.RefreshInterval, cfg.HTTPTimeout)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Cancelled on termination signal; also ends open event streams.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := httpapi.NewApp("weather-session")
	httpapi.RegisterRoutes(app, weatherStore, ctx.Done())

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()
	log.Printf("INFO: listening on :%s", cfg.Port)

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
