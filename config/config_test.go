package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/battlepass")
		t.Setenv("GAME_SERVICE_TOKEN", "secret")

		cfg, _, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "5200", cfg.Port)
		assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
		assert.Equal(t, time.Minute, cfg.GrantReplayInterval)
		assert.Equal(t, 10, cfg.GrantMaxAttempts)
		assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
		assert.False(t, cfg.R2Enabled())
	})

	t.Run("MissingRequired", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("GAME_SERVICE_TOKEN", "secret")

		_, _, err := Load()
		assert.Error(t, err)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/battlepass")
		t.Setenv("GAME_SERVICE_TOKEN", "secret")
		t.Setenv("DATABASE_DRIVER", "mysql")

		_, _, err := Load()
		assert.ErrorContains(t, err, "DATABASE_DRIVER")
	})
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: " https://a.example , https://b.example,,"}
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
}
