package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeapi/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5<<20, cfg.MaxUploadBytes)
	assert.Empty(t, cfg.RabbitMQURL)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("APP_PORT", ":9090")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("DATABASE_DRIVER", "postgres")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.AppPort)
	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
}

func TestLoad_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("MEDIA_ROOT=/srv/media\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("MEDIA_ROOT") })

	cfg, err := config.Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "/srv/media", cfg.MediaRoot)
}

func TestLoad_RejectsBadTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "-1h")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoad_WarnsOnDefaultSecret(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultJWTSecret, cfg.JWTSecret)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, log.WarnLevel, hook.LastEntry().Level)

	hook.Reset()
	t.Setenv("JWT_SECRET", "a-real-secret")
	_, err = config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Nil(t, hook.LastEntry())
}
