package di

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"GanttGen/internal/repository"
	"GanttGen/pkg/cache"
	"GanttGen/pkg/config"
	"GanttGen/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{Environment: "test"}
	cfg.Server.Port = 18080
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Log.Level = "error"
	cfg.Log.Format = "json"
	cfg.LLM.APIKey = "k"
	cfg.LLM.Model = "gemini-test"
	cfg.LLM.BaseURL = "http://127.0.0.1:0"
	cfg.LLM.Transport = "rest"
	cfg.LLM.Retry.Attempts = 3
	cfg.LLM.Retry.Backoff = time.Millisecond
	cfg.Session.Backend = "memory"
	cfg.Session.TTL = time.Hour
	cfg.Session.MemorySize = 10
	cfg.Upload.AllowedExtensions = []string{".md"}
	cfg.Metrics.Path = "/metrics"
	return cfg
}

func TestProvideSessionCache(t *testing.T) {
	cfg := testConfig()
	c, err := ProvideSessionCache(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	assert.IsType(t, &cache.MemoryCache{}, c)

	cfg.Session.Backend = "redis"
	cfg.Session.Redis.Addr = "no-port"
	_, err = ProvideSessionCache(cfg)
	assert.Error(t, err)
}

func TestProvideEventPublisher_Disabled(t *testing.T) {
	pub, err := ProvideEventPublisher(testConfig(), nil)
	require.NoError(t, err)
	assert.IsType(t, repository.NoopPublisher{}, pub)
}

func TestProvideMetrics(t *testing.T) {
	cfg := testConfig()
	assert.IsType(t, metrics.Nop{}, ProvideMetrics(cfg))
}

func TestProvideCompleter_UnknownTransport(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Transport = "carrier-pigeon"
	l, err := ProvideLogger(cfg)
	require.NoError(t, err)

	_, err = ProvideCompleter(cfg, l, metrics.Nop{})
	assert.Error(t, err)
}

func TestProvideHTTPServer_Routes(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Capacity = 1
	cfg.RateLimit.RefillPerSec = 0.001

	l, err := ProvideLogger(cfg)
	require.NoError(t, err)
	srv := ProvideHTTPServer(cfg, nil, l, ProvideRateLimiter())

	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	// metrics disabled in testConfig
	rec = httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInitializeApp(t *testing.T) {
	app, err := InitializeApp(testConfig())
	require.NoError(t, err)
	assert.NotNil(t, app)
}
