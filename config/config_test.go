package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "PORT", "STORE_DRIVER", "DELIVERY_FEE", "TOKEN_TTL", "CORS_ORIGINS", "ORDER_PRICE_CHECK"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()

	assert.Equal(t, "development", cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, 50.0, cfg.DeliveryFee)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.OrderPriceCheck)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("STORE_DRIVER", "MySQL")
	t.Setenv("DELIVERY_FEE", "75.5")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("ORDER_PRICE_CHECK", "true")
	t.Setenv("MAX_PRIORITY", "not-a-number")

	cfg := LoadConfig()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "mysql", cfg.StoreDriver)
	assert.Equal(t, 75.5, cfg.DeliveryFee)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.OrderPriceCheck)
	assert.Equal(t, 10, cfg.MaxPriority)
}

func TestGetEnvFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))

	t.Setenv("JWT_SECRET_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")
	assert.Equal(t, "from-file", getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", "default"))

	t.Setenv("JWT_SECRET_FILE", filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, "from-env", getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", "default"))
}
