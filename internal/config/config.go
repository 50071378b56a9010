package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/weather-session/internal/weather"
	"github.com/i474232898/weather-session/internal/weather/providers"
)

type AppConfig struct {
	// WeatherAPIKey is the provider access key. It is a secret and never logged.
	WeatherAPIKey  string
	WeatherBaseURL string

	// HTTPTimeout bounds the single outbound round trip of a fetch.
	HTTPTimeout time.Duration

	HistoryLimit int
	DefaultUnits weather.Units

	// RefreshInterval re-fetches the current location periodically (0 = disabled).
	RefreshInterval time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	if cfg.WeatherAPIKey == "" {
		log.Printf("INFO: WEATHERAPI_API_KEY is not set; every fetch will fail")
	}
	cfg.WeatherBaseURL = getenvDefault("WEATHERAPI_BASE_URL", providers.DefaultWeatherAPIBaseURL)

	timeout, err := time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.HistoryLimit = getenvInt("HISTORY_LIMIT", 5)

	units, err := weather.ParseUnits(getenvDefault("DEFAULT_UNITS", string(weather.UnitsMetric)))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_UNITS: %w", err)
	}
	cfg.DefaultUnits = units

	refresh, err := time.ParseDuration(getenvDefault("REFRESH_INTERVAL", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = refresh

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
