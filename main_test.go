package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeapi/internal/config"
)

func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATABASE_DSN", filepath.Join(dir, "test.db"))
	t.Setenv("MEDIA_ROOT", filepath.Join(dir, "media"))
	t.Setenv("JWT_SECRET", "test_jwt_secret")
	t.Setenv("RABBITMQ_URL", "")

	cfg, err := config.Load(filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	return cfg
}

func TestNewAppHealthCheck(t *testing.T) {
	app, cleanup, err := newApp(testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"healthy"`)
	assert.Contains(t, string(body), `"broker":"disabled"`)
}

func TestNewAppUnauthenticatedAccess(t *testing.T) {
	app, cleanup, err := newApp(testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	for _, target := range []string{"/api/recipes", "/api/contents/tags", "/api/user/me", "/api/admin/users"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)
	}
}

func TestNewAppRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "mysql"

	_, _, err := newApp(cfg)
	assert.Error(t, err)
}
