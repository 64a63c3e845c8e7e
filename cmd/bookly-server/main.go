package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"bookly/backend/internal/cache"
	"bookly/backend/internal/config"
	"bookly/backend/internal/metrics"
	"bookly/backend/internal/service/booking"
	"bookly/backend/internal/service/catalog"
	"bookly/backend/internal/store"
	"bookly/backend/internal/store/postgres"
	"bookly/backend/internal/telemetry"
	grpcTransport "bookly/backend/internal/transport/grpc"
	"bookly/backend/internal/worker"
)

const serviceName = "bookly-server"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", serviceName),
	)
	slog.SetDefault(log)

	if err := run(log, cfg); err != nil {
		log.Error("server stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting",
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("metrics_addr", cfg.MetricsAddr),
		slog.String("log_level", cfg.LogLevel),
		slog.String("cache_backend", cfg.CacheBackend),
	)

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracer shutdown failed", slog.Any("err", err))
		}
	}()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		return err
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	availability, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		log.Error("cache setup failed", slog.Any("err", err), slog.String("cache_backend", cfg.CacheBackend))
		return err
	}
	defer closeCache()

	m := metrics.New("bookly")

	bookingSvc := booking.NewService(postgres.NewAppointmentRepo(db, cfg.DBLockTimeout), booking.Config{
		MaxRange:              cfg.BookingMaxRange,
		AllowDurationMismatch: cfg.BookingAllowDurationMismatch,
		SlotStep:              cfg.BookingSlotStep,
		CompletionGrace:       cfg.CompletionGrace,
		CompletionBatch:       cfg.CompletionBatch,
		Retry: store.RetryConfig{
			MaxAttempts:     cfg.RetryMaxAttempts,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
		},
	},
		booking.WithPolicy(booking.NewProviderPolicy(cfg.BookingDefaultAutoConfirm)),
		booking.WithCache(availability),
		booking.WithMetrics(m),
		booking.WithLogger(log),
	)
	catalogSvc, err := catalog.NewService(postgres.NewCatalogRepo(db), availability, log)
	if err != nil {
		return err
	}

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcTransport.RequestIDInterceptor(),
			grpcTransport.DefaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout),
			grpcTransport.MetricsInterceptor(m),
		),
	)
	grpcTransport.RegisterBookingServiceServer(grpcServer, grpcTransport.NewBookingServer(bookingSvc, log))
	grpcTransport.RegisterCatalogServiceServer(grpcServer, grpcTransport.NewCatalogServer(catalogSvc, log))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	var sweep *worker.CompletionSweep
	if cfg.CompletionEnabled {
		sweep = worker.NewCompletionSweep(bookingSvc, cfg.CompletionSchedule, 0, log)
		if err := sweep.Start(ctx); err != nil {
			log.Error("completion sweep start failed", slog.Any("err", err), slog.String("schedule", cfg.CompletionSchedule))
			return err
		}
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		return err
	}

	adminSrv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           adminMux(m, db.PingContext),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("grpc server started", slog.String("grpc_addr", cfg.GRPCAddr()))
		healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		log.Info("admin server started", slog.String("metrics_addr", cfg.MetricsAddr))
		if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")
		healthSrv.Shutdown()
		if sweep != nil {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			sweep.Stop(sctx)
			cancel()
		}
		shutdown(log, grpcServer, adminSrv, cfg.ShutdownTimeout)
		return nil
	})

	return g.Wait()
}

func openCache(ctx context.Context, cfg config.Config) (cache.Availability, func(), error) {
	switch cfg.CacheBackend {
	case "none":
		return cache.Noop{}, func() {}, nil
	case "redis":
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedis(client, cfg.CacheTTL, "bookly:"), func() { _ = client.Close() }, nil
	default:
		return cache.NewMemory(cfg.CacheTTL, 2*cfg.CacheTTL), func() {}, nil
	}
}

func adminMux(m *metrics.Metrics, ping func(context.Context) error) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database: " + err.Error()))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func shutdown(log *slog.Logger, s *grpc.Server, admin *http.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := admin.Shutdown(ctx); err != nil {
		log.Warn("admin server shutdown failed", slog.Any("err", err))
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
