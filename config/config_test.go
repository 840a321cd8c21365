package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_NAME", "")
	t.Setenv("STORAGE_DRIVER", "")
	cfg := Load()

	assert.Equal(t, "cosmebag", cfg.AppName)
	assert.Equal(t, "postgres", cfg.StorageDriver)
	assert.False(t, cfg.UseMemoryStore())
	assert.Equal(t, 24*time.Hour, cfg.ConfirmTokenTTL)
	assert.Equal(t, "bags", cfg.ESBagsIndex)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "Memory")
	t.Setenv("PRODUCT_API_RPS", "2.5")
	t.Setenv("AUTH_AUTO_CONFIRM", "true")
	t.Setenv("NAV_STATE_TTL", "bogus")
	t.Setenv("CORS_ALLOWED_ORIGINS", " http://a.test, ,http://b.test")
	cfg := Load()

	assert.True(t, cfg.UseMemoryStore())
	assert.Equal(t, 2.5, cfg.ProductAPIRPS)
	assert.True(t, cfg.AuthAutoConfirm)
	assert.Equal(t, 24*time.Hour, cfg.NavStateTTL, "invalid duration falls back to default")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
}

func TestPostgresDSN_EscapesPassword(t *testing.T) {
	cfg := &Config{DBUser: "app", DBPassword: "p@ss:word", DBHost: "db", DBPort: "5432", DBName: "cosmebag", DBSSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/cosmebag?sslmode=disable", cfg.PostgresDSN())
}
