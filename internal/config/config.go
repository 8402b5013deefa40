package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AppConfig is the immutable configuration every entry point builds its
// collaborators from.
type AppConfig struct {
	// OpenWeatherAPIKey is required; startup fails fast without it.
	OpenWeatherAPIKey string

	// Tracked city. Defaults to Karachi.
	CityName      string
	CityLatitude  float64
	CityLongitude float64

	// HTTPTimeout bounds each outbound API call.
	HTTPTimeout time.Duration

	// StoreDSN is the SQLite path backing the feature store.
	StoreDSN string

	// DataDir holds local CSV backups and exports.
	DataDir string

	// ModelDir is the filesystem model-registry root.
	ModelDir string

	// Port for the dashboard API.
	Port string
}

// Load reads configuration from the environment with Karachi defaults. The
// missing API key is the one unrecoverable configuration error: it fails here
// and is not caught anywhere downstream.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	if cfg.OpenWeatherAPIKey == "" {
		return nil, fmt.Errorf("required environment variable OPENWEATHER_API_KEY not found; set it in your .env file")
	}

	cfg.CityName = getenvDefault("CITY_NAME", "karachi")

	var err error
	if cfg.CityLatitude, err = getenvFloat("CITY_LATITUDE", 24.8607); err != nil {
		return nil, err
	}
	if cfg.CityLongitude, err = getenvFloat("CITY_LONGITUDE", 67.0011); err != nil {
		return nil, err
	}

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.StoreDSN = getenvDefault("FEATURE_STORE_PATH", "data/features.db")
	cfg.DataDir = getenvDefault("DATA_DIR", "data")
	cfg.ModelDir = getenvDefault("MODEL_DIR", "models")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
