package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "notsoai-session", cfg.Session.CookieName)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SESSION_MAX_AGE", "48h")
	t.Setenv("WORKER_CONCURRENCY", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "s3cret", cfg.Session.Secret)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 48*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, 7, cfg.WorkerConcurrency())
	assert.Equal(t, 2*time.Minute, cfg.Worker.JobTimeout)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingSessionSecret)
}

func TestValidate_RejectsUnsignedInProduction(t *testing.T) {
	cfg := defaultConfig()
	cfg.Env = "production"
	cfg.Session.Secret = "x"
	cfg.Session.AllowUnsigned = true

	require.ErrorIs(t, cfg.Validate(), ErrUnsignedInProduction)
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := defaultConfig()
	cfg.DB.Driver = "oracle"
	require.Error(t, cfg.Validate())
}

func TestWorkerConcurrency_Clamped(t *testing.T) {
	cfg := defaultConfig()
	cfg.Worker.Concurrency = 500
	assert.Equal(t, 50, cfg.WorkerConcurrency())
	cfg.Worker.Concurrency = -1
	assert.Equal(t, 2, cfg.WorkerConcurrency())
}

func TestLoad_NormalizesDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", " Mock ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.DB.Driver)
}
