package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/cakepot/internal/auth"
	"github.com/mmynk/cakepot/internal/config"
	"github.com/mmynk/cakepot/internal/conversion"
	"github.com/mmynk/cakepot/internal/ledger"
	"github.com/mmynk/cakepot/internal/lock"
	"github.com/mmynk/cakepot/internal/metrics"
	"github.com/mmynk/cakepot/internal/middleware"
	"github.com/mmynk/cakepot/internal/money"
	"github.com/mmynk/cakepot/internal/outbox"
	"github.com/mmynk/cakepot/internal/service"
	"github.com/mmynk/cakepot/internal/storage/sqlite"
	"github.com/mmynk/cakepot/pkg/api"
	"github.com/mmynk/cakepot/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("CAKEPOT_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Logging is not configured yet
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup structured logging
	level := logging.ParseLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		defer logging.SetupWithFile(level, cfg.Log.File).Close()
	} else {
		logging.SetupWithLevel(level)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	m := metrics.Ledger()

	locker, closeLocker := newLocker(cfg.Redis)
	defer closeLocker()

	router, err := newRouter(cfg.Conversion)
	if err != nil {
		return err
	}

	ledgerCfg := ledger.Config{
		MaxBatchesPerCut: cfg.Ledger.MaxBatchesPerCut,
		Overpayment:      ledger.Overpayment(cfg.Ledger.Overpayment),
	}
	lg, err := ledger.New(store, ledgerCfg,
		ledger.WithLocker(locker),
		ledger.WithConverter(router),
		ledger.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("failed to create ledger: %w", err)
	}

	publisher, err := newPublisher(cfg.Kafka)
	if err != nil {
		return err
	}
	defer publisher.Close()

	relay := outbox.NewRelay(store, publisher, m, outbox.Config{
		Interval:   cfg.Outbox.Interval,
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetries,
	})
	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		relay.Run(ctx)
	}()

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst, m, api.PublicProcedures...)

	// Auth runs first so the logger and limiter see the caller
	ledgerPath, ledgerHandler := api.NewLedgerServiceHandler(
		service.NewLedgerService(lg),
		connect.WithInterceptors(
			middleware.Authenticate(jwtManager, api.PublicProcedures...),
			middleware.LoggingInterceptor(),
			limiter.Interceptor(),
		),
	)

	r := chi.NewRouter()
	r.Use(loggingMiddleware, corsMiddleware)
	r.Handle(ledgerPath+"*", ledgerHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr, "url", fmt.Sprintf("http://localhost%s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-relayDone
			return err
		}
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	<-relayDone
	return nil
}

// newLocker returns the Redis lock when an address is configured and the
// in-process lock otherwise.
func newLocker(cfg config.RedisConfig) (lock.Locker, func()) {
	if cfg.Addr == "" {
		slog.Info("Using in-process pot lock")
		return lock.NewLocal(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	slog.Info("Using Redis pot lock", "addr", cfg.Addr)
	return lock.NewRedis(client), func() {
		if err := client.Close(); err != nil {
			slog.Warn("Failed to close redis client", "error", err)
		}
	}
}

// newRouter builds the conversion router from configured pools.
func newRouter(cfg config.ConversionConfig) (*conversion.Router, error) {
	pools := make([]conversion.PoolConfig, 0, len(cfg.Pools))
	for _, p := range cfg.Pools {
		reserveA, err := money.ParseBaseUnits(p.ReserveA)
		if err != nil {
			return nil, fmt.Errorf("invalid reserve for pool %s/%s: %w", p.AssetA, p.AssetB, err)
		}
		reserveB, err := money.ParseBaseUnits(p.ReserveB)
		if err != nil {
			return nil, fmt.Errorf("invalid reserve for pool %s/%s: %w", p.AssetA, p.AssetB, err)
		}
		pools = append(pools, conversion.PoolConfig{
			AssetA:   p.AssetA,
			AssetB:   p.AssetB,
			ReserveA: reserveA,
			ReserveB: reserveB,
			FeeBps:   p.FeeBps,
		})
	}

	router, err := conversion.NewRouter(pools...)
	if err != nil {
		return nil, fmt.Errorf("failed to build conversion router: %w", err)
	}
	slog.Info("Conversion router ready", "pools", len(pools))
	return router, nil
}

// newPublisher returns a Kafka publisher when brokers are configured and a
// log publisher otherwise.
func newPublisher(cfg config.KafkaConfig) (outbox.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		slog.Info("No Kafka brokers configured, logging outbox events")
		return outbox.NewLogPublisher(slog.Default()), nil
	}

	publisher, err := outbox.NewKafkaPublisher(cfg.Brokers, cfg.TopicPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to kafka: %w", err)
	}
	slog.Info("Publishing outbox events to Kafka", "brokers", cfg.Brokers)
	return publisher, nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
