package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/service-center/internal/config"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/metrics"
	"github.com/ukydev/service-center/internal/ratelimit"
)

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	require.NoError(t, setupLogging(config.LoggingConfig{Level: "debug", Format: "text"}))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)

	require.NoError(t, setupLogging(config.LoggingConfig{Level: "warn", Format: "json"}))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	assert.Error(t, setupLogging(config.LoggingConfig{Level: "loud"}))
}

func TestOpenStore_Memory(t *testing.T) {
	store, closeFn, err := openStore(context.Background(), config.StoreConfig{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.NotNil(t, store)
	closeFn()
}

func TestNewPublisher_NoBroker(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	pub, closeFn := newPublisher(config.MQTTConfig{}, m)
	defer closeFn()
	assert.Same(t, m, pub)
}

func TestNewPublisher_UnreachableBroker(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	m := metrics.New(prometheus.NewRegistry())
	pub, closeFn := newPublisher(config.MQTTConfig{Broker: "tcp://127.0.0.1:1", ClientID: "test"}, m)
	defer closeFn()
	_, isMulti := pub.(events.Multi)
	assert.False(t, isMulti)
}

func TestNewLimiter(t *testing.T) {
	ctx := context.Background()

	limiter, closeFn := newLimiter(ctx, config.RedisConfig{}, config.RateLimitConfig{Requests: 0})
	assert.Nil(t, limiter)
	closeFn()

	limiter, closeFn = newLimiter(ctx, config.RedisConfig{}, config.RateLimitConfig{Requests: 5, Window: time.Minute})
	assert.IsType(t, &ratelimit.SlidingWindow{}, limiter)
	closeFn()

	mr := miniredis.RunT(t)
	limiter, closeFn = newLimiter(ctx, config.RedisConfig{Address: mr.Addr()}, config.RateLimitConfig{Requests: 1, Window: time.Minute})
	defer closeFn()
	require.IsType(t, &ratelimit.RedisLimiter{}, limiter)
	assert.True(t, limiter.Allow(ctx, "k").Allowed)
	assert.False(t, limiter.Allow(ctx, "k").Allowed)
}

func TestBuildHandler(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory

	store, closeFn, err := openStore(context.Background(), cfg.Store)
	require.NoError(t, err)
	defer closeFn()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	handler, err := buildHandler(cfg, store, m, nil, m, reg)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customer/service_requests", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cfg.Workflow.AssignmentStrategy = "round_robin"
	_, err = buildHandler(cfg, store, m, nil, m, reg)
	assert.Error(t, err)
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	err := run(context.Background(), nil)
	assert.ErrorContains(t, err, "unknown store backend")

	err = run(context.Background(), []string{"--no-such-flag"})
	assert.Error(t, err)
}
