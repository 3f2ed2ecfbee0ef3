package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomobs/tom-portal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func testAppConfig(apiURL string) *config.AppConfig {
	cfg := &config.AppConfig{
		API:   config.APIConfig{BaseURL: apiURL},
		Redis: config.RedisConfig{Prefix: "test:session:"},
	}
	cfg.Sanitize()
	return cfg
}

func TestBuildAuth_RequiresDependencies(t *testing.T) {
	_, err := BuildAuth(context.Background(), AuthConfig{})
	require.Error(t, err)

	_, err = BuildAuth(context.Background(), AuthConfig{Config: testAppConfig("http://tom.test/")})
	require.Error(t, err)
}

func TestBuildAuth_RejectsRelativeAPIURL(t *testing.T) {
	_, rdb := testRedis(t)
	cfg := testAppConfig("tom.test")

	_, err := BuildAuth(context.Background(), AuthConfig{Config: cfg, RedisClient: rdb, Logger: testLogger()})
	require.Error(t, err)
}

func TestBuildAuth_PasswordOnlyWithoutSocialConfig(t *testing.T) {
	_, rdb := testRedis(t)

	auth, err := BuildAuth(context.Background(), AuthConfig{
		Config:      testAppConfig("http://tom.test/"),
		RedisClient: rdb,
		Logger:      testLogger(),
	})
	require.NoError(t, err)
	require.NotNil(t, auth.Service)
	require.NotNil(t, auth.Refresher)
	assert.Empty(t, auth.Service.Providers())
	assert.NotNil(t, auth.ClientFactory()("session-1"))
}

func TestBuildAuth_SocialProvidersNeedPublicURL(t *testing.T) {
	_, rdb := testRedis(t)
	cfg := testAppConfig("http://tom.test/")
	cfg.Auth.GitHub = config.OAuthClientConfig{ClientID: "gh-id", ClientSecret: "gh-secret"}

	auth, err := BuildAuth(context.Background(), AuthConfig{Config: cfg, RedisClient: rdb, Logger: testLogger()})
	require.NoError(t, err)
	assert.Empty(t, auth.Service.Providers())

	cfg.HTTP.PublicURL = "https://portal.example.edu"
	auth, err = BuildAuth(context.Background(), AuthConfig{Config: cfg, RedisClient: rdb, Logger: testLogger()})
	require.NoError(t, err)
	assert.Equal(t, []string{"github"}, auth.Service.Providers())
}

func TestBuildAuth_SkipsGoogleWhenDiscoveryFails(t *testing.T) {
	_, rdb := testRedis(t)
	discovery := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(discovery.Close)

	cfg := testAppConfig("http://tom.test/")
	cfg.HTTP.PublicURL = "https://portal.example.edu"
	cfg.Auth.Google = config.OAuthClientConfig{ClientID: "g-id", ClientSecret: "g-secret"}
	cfg.Auth.GoogleIssuer = discovery.URL

	auth, err := BuildAuth(context.Background(), AuthConfig{Config: cfg, RedisClient: rdb, Logger: testLogger()})
	require.NoError(t, err)
	assert.Empty(t, auth.Service.Providers())
}
