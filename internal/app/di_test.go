package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/gatekeeper/internal/config"
	credentialDomain "github.com/allisson/gatekeeper/internal/credential/domain"
	"github.com/allisson/gatekeeper/internal/session"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		ServerHost:        "localhost",
		ServerPort:        8080,
		Environment:       config.EnvironmentDevelopment,
		LogLevel:          "error",
		StoreDriver:       config.StoreDriverFile,
		StoreRootPath:     t.TempDir(),
		SessionDriver:     config.SessionDriverMemory,
		SessionTTL:        time.Minute,
		SessionCookieName: "gatekeeper_session",
		KDFMemoryKiB:      64,
		KDFIterations:     1,
		KDFParallelism:    1,
		MetricsNamespace:  "di_test",
	}
}

func TestContainer_Logger(t *testing.T) {
	container := NewContainer(&config.Config{LogLevel: "debug"})

	logger := container.Logger()
	require.NotNil(t, logger)
	assert.Same(t, logger, container.Logger())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", parseLogLevel("debug").String())
	assert.Equal(t, "WARN", parseLogLevel("warn").String())
	assert.Equal(t, "ERROR", parseLogLevel("error").String())
	assert.Equal(t, "INFO", parseLogLevel("invalid").String())
}

func TestContainer_HTTPServer_FileStore(t *testing.T) {
	cfg := testConfig(t)
	container := NewContainer(cfg)
	defer func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	}()

	server, err := container.HTTPServer()
	require.NoError(t, err)

	again, err := container.HTTPServer()
	require.NoError(t, err)
	assert.Same(t, server, again)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"content_store":"ok"`)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/authors", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	metricsServer, err := container.MetricsServer()
	require.NoError(t, err)
	assert.Nil(t, metricsServer)
}

func TestContainer_ContentStore_File(t *testing.T) {
	container := NewContainer(testConfig(t))

	store, err := container.ContentStore()
	require.NoError(t, err)

	txManager, err := container.ContentTxManager()
	require.NoError(t, err)
	assert.Same(t, store, txManager)

	identityTx, err := container.TxManager()
	require.NoError(t, err)
	assert.NotSame(t, txManager, identityTx)
}

func TestContainer_MetricsEnabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.MetricsEnabled = true
	cfg.MetricsPort = 8081
	container := NewContainer(cfg)
	defer func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	}()

	server, err := container.HTTPServer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	metricsServer, err := container.MetricsServer()
	require.NoError(t, err)
	require.NotNil(t, metricsServer)

	w = httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "di_test_gate_decisions_total")
}

func TestContainer_RedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.SessionDriver = config.SessionDriverRedis
	cfg.RedisAddr = mr.Addr()
	container := NewContainer(cfg)
	defer func() {
		assert.NoError(t, container.Shutdown(context.Background()))
	}()

	store, err := container.SessionStore()
	require.NoError(t, err)
	assert.IsType(t, &session.RedisStore{}, store)

	server, err := container.HTTPServer()
	require.NoError(t, err)

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session_store":"ok"`)
}

func TestContainer_Errors(t *testing.T) {
	t.Run("UnsupportedStoreDriver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.StoreDriver = "sqlite"
		container := NewContainer(cfg)

		_, err := container.IdentityStore()
		assert.ErrorContains(t, err, "unsupported store driver")

		_, err = container.UserUseCase()
		assert.Error(t, err)

		_, err = container.ContentStore()
		assert.ErrorContains(t, err, "unsupported store driver")

		_, err = container.ContentHandler()
		assert.Error(t, err)
	})

	t.Run("UnsupportedSessionDriver", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.SessionDriver = "cookie"
		container := NewContainer(cfg)

		_, err := container.SessionManager()
		assert.ErrorContains(t, err, "unsupported session driver")
	})

	t.Run("InvalidKDFParams", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.KDFIterations = 0
		container := NewContainer(cfg)

		_, err := container.Hasher()
		assert.ErrorIs(t, err, credentialDomain.ErrLibraryFailure)
	})

	t.Run("FileDriverHasNoDatabase", func(t *testing.T) {
		container := NewContainer(testConfig(t))

		db, err := container.DB()
		assert.Nil(t, db)
		assert.Error(t, err)
	})

	t.Run("ErrorIsCached", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.StoreDriver = "sqlite"
		container := NewContainer(cfg)

		_, first := container.IdentityStore()
		cfg.StoreDriver = config.StoreDriverFile
		_, second := container.IdentityStore()
		assert.Equal(t, first, second)
	})
}

func TestContainer_ShutdownWithoutInit(t *testing.T) {
	container := NewContainer(testConfig(t))
	assert.NoError(t, container.Shutdown(context.Background()))
}
