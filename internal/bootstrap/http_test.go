package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	httpx "github.com/tomobs/tom-portal/internal/http"
)

func TestBuildHTTPHandler_ReadinessFollowsRedis(t *testing.T) {
	mr, rdb := testRedis(t)
	auth, err := BuildAuth(context.Background(), AuthConfig{
		Config:      testAppConfig("http://tom.test/"),
		RedisClient: rdb,
		Logger:      testLogger(),
	})
	require.NoError(t, err)

	handler := buildHTTPHandler(testLogger(), httpx.RouterServices{
		Auth:      auth.Service,
		Refresher: auth.Refresher,
		Clients:   auth.ClientFactory(),
		Readiness: map[string]httpx.ReadinessCheck{"redis": redisReadiness(rdb)},
		Logger:    testLogger(),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mr.Close()

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"dependency":"redis"`)
}

func TestBuildHTTPHandler_StatusWithoutSession(t *testing.T) {
	_, rdb := testRedis(t)
	auth, err := BuildAuth(context.Background(), AuthConfig{
		Config:      testAppConfig("http://tom.test/"),
		RedisClient: rdb,
		Logger:      testLogger(),
	})
	require.NoError(t, err)

	handler := buildHTTPHandler(testLogger(), httpx.RouterServices{
		Auth:    auth.Service,
		Clients: auth.ClientFactory(),
		Logger:  testLogger(),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/status", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"authenticated":false`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/targets", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOpenFrontend(t *testing.T) {
	fsys, err := openFrontend("")
	require.NoError(t, err)
	assert.Nil(t, fsys)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o600))
	fsys, err = openFrontend(dir)
	require.NoError(t, err)
	require.NotNil(t, fsys)

	_, err = openFrontend(filepath.Join(dir, "index.html"))
	require.Error(t, err)

	_, err = openFrontend(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestShutdownHTTPServer(t *testing.T) {
	require.NoError(t, ShutdownHTTPServer(context.Background(), nil, time.Second, nil))

	server := startServer(testLogger(), http.NotFoundHandler(), "127.0.0.1:0", nil)
	require.NoError(t, ShutdownHTTPServer(context.Background(), server, time.Second, testLogger()))
}
