package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{"DATABASE_URL": "postgres://localhost/bizbook"}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, devJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL)
	assert.Equal(t, 168*time.Hour, cfg.Auth.RefreshTTL)
	assert.Equal(t, "5-M", cfg.Auth.RateLimit)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "US", cfg.PhoneDefaultRegion)
	assert.Equal(t, "file://migrations", cfg.Migrations.Path)
	assert.False(t, cfg.Redis.Enabled())
}

func TestFromViper_ProductionRequiresSecret(t *testing.T) {
	_, err := fromViper(newViper(map[string]any{
		"APP_ENV":      "production",
		"DATABASE_URL": "postgres://db/bizbook",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestFromViper_MissingDatabaseURL(t *testing.T) {
	_, err := fromViper(newViper(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := fromViper(newViper(map[string]any{
		"DATABASE_URL":         "postgres://db/bizbook",
		"CORS_ALLOWED_ORIGINS": "https://a.test, https://b.test",
		"REDIS_ADDR":           "localhost:6379",
		"PHONE_DEFAULT_REGION": "gb",
	}))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "GB", cfg.PhoneDefaultRegion)
}
