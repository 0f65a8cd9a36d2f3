package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc/credentials"

	"github.com/fintrack/loanbook/internal/application/usecase"
	"github.com/fintrack/loanbook/internal/domain/port"
	"github.com/fintrack/loanbook/internal/infrastructure/config"
	"github.com/fintrack/loanbook/internal/infrastructure/kafka"
	"github.com/fintrack/loanbook/internal/infrastructure/memory"
	pgRepo "github.com/fintrack/loanbook/internal/infrastructure/postgres"
	redisStore "github.com/fintrack/loanbook/internal/infrastructure/redis"
	grpcPresentation "github.com/fintrack/loanbook/internal/presentation/grpc"
	"github.com/fintrack/loanbook/internal/presentation/rest"
	"github.com/fintrack/loanbook/pkg/auth"
	pkgkafka "github.com/fintrack/loanbook/pkg/kafka"
	"github.com/fintrack/loanbook/pkg/money"
	"github.com/fintrack/loanbook/pkg/observability"
	pkgpostgres "github.com/fintrack/loanbook/pkg/postgres"
	"github.com/fintrack/loanbook/pkg/tlsutil"
)

func main() {
	if err := run(); err != nil {
		slog.Error("loanbook exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: cfg.ServiceName,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	currency, err := money.NewCurrency(cfg.Currency)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("starting loanbook",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"storage", cfg.Storage,
		"currency", currency.Code(),
	)

	// Tracing is optional.
	if cfg.OTLPEndpoint != "" {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	provider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }() //nolint:errcheck
	metrics, err := usecase.NewMetrics(provider.Meter("github.com/fintrack/loanbook"))
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	checks := make(map[string]rest.Check)

	// Storage.
	var (
		loans  port.LoanRepository
		ledger port.PaymentLedger
	)
	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.NewStore()
		loans, ledger = store, store
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		dbCfg := pkgpostgres.Config{
			Host:            cfg.DB.Host,
			Port:            cfg.DB.Port,
			User:            cfg.DB.User,
			Password:        cfg.DB.Password,
			Database:        cfg.DB.Name,
			SSLMode:         cfg.DB.SSLMode,
			MaxConns:        int32(cfg.DB.MaxConns),
			ApplicationName: cfg.ServiceName,
		}
		dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pkgpostgres.NewPool(dbCtx, dbCfg)
		dbCancel()
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		logger.Info("connected to database")

		if err := pkgpostgres.RunMigrations(dbCfg.DSN(), "file://"+cfg.MigrationsDir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		loans, ledger = pgRepo.NewLoanRepo(pool), pgRepo.NewPaymentLedger(pool)
		checks["postgres"] = func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) }
	}

	// Event publication.
	var publisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := pkgkafka.NewProducer(cfg.Kafka.Producer())
		if err != nil {
			return fmt.Errorf("configure kafka: %w", err)
		}
		defer producer.Close()
		publisher = kafka.NewEventPublisher(producer, cfg.Kafka.Topic, logger)
		logger.Info("publishing events to kafka", "topic", cfg.Kafka.Topic)
	} else {
		publisher = memory.NewEventLog(logger)
		logger.Info("KAFKA_BROKERS not set, events are only logged")
	}

	// Idempotency keys.
	var idempotency port.IdempotencyStore
	if cfg.Redis.Addr != "" {
		client, err := redisStore.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		idempotency = redisStore.NewIdempotencyStore(client)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		idempotency = memory.NewIdempotencyStore()
		logger.Info("REDIS_ADDR not set, idempotency keys are process-local")
	}

	useCases := usecase.NewSet(usecase.Dependencies{
		Loans:          loans,
		Ledger:         ledger,
		Publisher:      publisher,
		Idempotency:    idempotency,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Metrics:        metrics,
		Logger:         logger,
		Currency:       currency,
	})

	jwtSvc, err := newJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("initialize JWT service: %w", err)
	}

	// gRPC and HTTP share one certificate when TLS is configured.
	grpcOpts := grpcPresentation.ServerOptions{Reflection: cfg.GRPCReflection}
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: rest.NewRouter(rest.RouterConfig{
			Logger:   logger,
			JWT:      jwtSvc,
			Metrics:  metricsHandler,
			Checks:   checks,
			UseCases: useCases,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.TLS.Enabled() {
		tlsCfg, err := tlsutil.ServerConfig(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS credentials: %w", err)
		}
		grpcOpts.Creds = credentials.NewTLS(tlsCfg)
		httpServer.TLSConfig = tlsCfg
	}
	grpcServer := grpcPresentation.NewServer(grpcPresentation.NewLoanbookHandler(useCases, logger), logger, jwtSvc, grpcOpts)

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort, "tls", httpServer.TLSConfig != nil)
		var err error
		if httpServer.TLSConfig != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	// Graceful shutdown.
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("loanbook stopped")
	return runErr
}

// newJWTService builds a validation-only JWT service: an RSA public key when
// one is configured, the shared secret otherwise.
func newJWTService(cfg config.AuthConfig) (*auth.JWTService, error) {
	jwtCfg := auth.JWTConfig{Issuer: cfg.Issuer}
	switch {
	case cfg.JWTPublicKey != "":
		jwtCfg.PublicKeyPEM = cfg.JWTPublicKey
	case cfg.JWTPublicKeyFile != "":
		keyData, err := auth.LoadKeyFromFile(cfg.JWTPublicKeyFile)
		if err != nil {
			return nil, err
		}
		jwtCfg.PublicKeyPEM = string(keyData)
	default:
		jwtCfg.Secret = cfg.JWTSecret
	}
	return auth.NewJWTService(jwtCfg)
}
