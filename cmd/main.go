package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/ukydev/service-center/internal/assign"
	"github.com/ukydev/service-center/internal/auth"
	"github.com/ukydev/service-center/internal/config"
	"github.com/ukydev/service-center/internal/db"
	"github.com/ukydev/service-center/internal/events"
	"github.com/ukydev/service-center/internal/handlers"
	"github.com/ukydev/service-center/internal/metrics"
	"github.com/ukydev/service-center/internal/middleware"
	"github.com/ukydev/service-center/internal/ratelimit"
	"github.com/ukydev/service-center/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.WithError(err).Fatal("Service center API stopped")
	}
}

func run(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("service-center", pflag.ContinueOnError)
	configPath := flags.String("config", "", "path to a YAML config file (default $CONFIG_FILE)")
	port := flags.String("port", "", "listen port, overrides config")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := setupLogging(cfg.Logging); err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	publisher, closePublisher := newPublisher(cfg.MQTT, m)
	defer closePublisher()

	limiter, closeLimiter := newLimiter(ctx, cfg.Redis, cfg.RateLimit)
	defer closeLimiter()

	handler, err := buildHandler(cfg, store, publisher, limiter, m, reg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"port":   cfg.Server.Port,
			"store":  cfg.Store.Backend,
			"assign": cfg.Workflow.AssignmentStrategy,
			"redis":  cfg.Redis.Address != "",
			"mqtt":   cfg.MQTT.Broker != "",
		}).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogging(cfg config.LoggingConfig) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	switch strings.ToLower(cfg.Format) {
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.StoreConfig) (db.Store, func(), error) {
	if cfg.Backend == config.BackendMemory {
		log.Warn("Using in-memory store; data is lost on restart")
		return db.NewMemoryStore(), func() {}, nil
	}

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("MongoDB disconnect failed")
		}
	}

	store := &db.MongoStore{Database: client.Database(cfg.MongoDB)}
	if err := store.EnsureIndexes(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
	return store, closeFn, nil
}

// newPublisher always counts events in m and also sends them to MQTT when a
// broker is configured and reachable.
func newPublisher(cfg config.MQTTConfig, m *metrics.Metrics) (events.Publisher, func()) {
	if cfg.Broker == "" {
		return m, func() {}
	}
	client, err := events.ConnectMQTT(cfg.Broker, cfg.ClientID, 10*time.Second)
	if err != nil {
		log.WithError(err).WithField("broker", cfg.Broker).Warn("MQTT unavailable, workflow events will not be published")
		return m, func() {}
	}
	mq := events.NewMQTTPublisher(client, cfg.TopicPrefix)
	queue := events.NewAsync(mq, cfg.QueueSize, log.StandardLogger())
	log.WithField("broker", cfg.Broker).Info("Publishing workflow events to MQTT")
	return events.Multi{m, queue}, func() {
		queue.Close()
		mq.Close()
	}
}

// newLimiter returns nil when rate limiting is disabled. With a Redis address
// the limit is shared across instances.
func newLimiter(ctx context.Context, rc config.RedisConfig, rl config.RateLimitConfig) (ratelimit.Limiter, func()) {
	if rl.Requests <= 0 {
		return nil, func() {}
	}
	if rc.Address == "" {
		return ratelimit.NewSlidingWindow(rl.Requests, rl.Window), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     rc.Address,
		Password: rc.Password,
		DB:       rc.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.WithError(err).WithField("addr", rc.Address).Warn("Redis unreachable, rate limits fall back to this instance")
	}
	return ratelimit.NewRedisLimiter(client, rl.Requests, rl.Window), func() { _ = client.Close() }
}

func buildHandler(cfg *config.Config, store db.Store, publisher events.Publisher, limiter ratelimit.Limiter, m *metrics.Metrics, gatherer prometheus.Gatherer) (http.Handler, error) {
	users := db.NewUsers(store)
	requests := db.NewServiceRequests(store)
	txs := db.NewTransactions(store)

	assigner, err := assign.New(assign.Strategy(cfg.Workflow.AssignmentStrategy), requests)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry)
	svc := service.New(users, requests, txs, assigner, service.WithPublisher(publisher))

	return handlers.NewRouter(handlers.RouterConfig{
		Auth:          handlers.NewAuthHandler(tokens, users),
		Workflow:      handlers.NewWorkflowHandler(svc),
		Authenticator: middleware.NewAuthMiddleware(auth.NewGate(tokens, users)),
		Limiter:       limiter,
		Metrics:       m,
		Gatherer:      gatherer,
		TrustProxy:    cfg.RateLimit.TrustProxy,
	}), nil
}
