package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENWEATHER_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "key")
	for _, k := range []string{"CITY_NAME", "CITY_LATITUDE", "CITY_LONGITUDE", "HTTP_TIMEOUT", "FEATURE_STORE_PATH", "DATA_DIR", "MODEL_DIR", "PORT"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "karachi", cfg.CityName)
	assert.Equal(t, 24.8607, cfg.CityLatitude)
	assert.Equal(t, 67.0011, cfg.CityLongitude)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "data/features.db", cfg.StoreDSN)
	assert.Equal(t, "models", cfg.ModelDir)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "key")
	t.Setenv("CITY_NAME", "lahore")
	t.Setenv("CITY_LATITUDE", "31.5204")
	t.Setenv("HTTP_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "lahore", cfg.CityName)
	assert.Equal(t, 31.5204, cfg.CityLatitude)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
}

func TestLoadInvalidValues(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "key")

	t.Setenv("CITY_LATITUDE", "north")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CITY_LATITUDE", "")
	t.Setenv("HTTP_TIMEOUT", "fast")
	_, err = Load()
	assert.Error(t, err)
}
