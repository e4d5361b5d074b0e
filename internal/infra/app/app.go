package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/karahan-cpu/martek-marina/internal/core/port"
	"github.com/karahan-cpu/martek-marina/internal/infra/config"
	"github.com/karahan-cpu/martek-marina/internal/infra/database"
	kafkainfra "github.com/karahan-cpu/martek-marina/internal/infra/kafka"
	"github.com/karahan-cpu/martek-marina/internal/infra/logger"
	redisinfra "github.com/karahan-cpu/martek-marina/internal/infra/redis"
	"github.com/karahan-cpu/martek-marina/internal/infra/security"
	"github.com/karahan-cpu/martek-marina/internal/infra/telemetry"
	memoryrepo "github.com/karahan-cpu/martek-marina/internal/repository/memory"
	postgresrepo "github.com/karahan-cpu/martek-marina/internal/repository/postgres"
	redisrepo "github.com/karahan-cpu/martek-marina/internal/repository/redis"
	"github.com/karahan-cpu/martek-marina/internal/transport/http/middleware"
	"github.com/karahan-cpu/martek-marina/internal/transport/http/routes"
	"github.com/karahan-cpu/martek-marina/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	tracer   *telemetry.TracerProvider
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	tele, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	verifier, err := security.NewTokenVerifier(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("init token verifier: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgresrepo.NewRepositories(pool)

	var grants port.GrantCache
	switch cfg.Access.GrantBackend {
	case "redis":
		grants = redisrepo.NewGrantCache(redisClient.Client(), redisrepo.GrantCacheConfig{
			KeyPrefix: cfg.Access.GrantPrefix,
			TTL:       cfg.Access.GrantTTL,
		})
		log.Info("using redis grant cache", zap.String("prefix", cfg.Access.GrantPrefix))
	default:
		grants = memoryrepo.NewGrantCache()
		log.Info("using in-memory grant cache")
	}

	var eventPublisher port.EventPublisher
	var producer *kafkainfra.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "marina:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	accessService := usecase.NewAccessService(repos.Pedestals, repos.Attempts, grants, eventPublisher, log)
	pedestalService := usecase.NewPedestalService(repos.Pedestals)
	controlService := usecase.NewControlService(repos.Pedestals, grants, eventPublisher, log)

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Verifier:    verifier,
		Telemetry:   tele,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Access:    accessService,
			Pedestals: pedestalService,
			Control:   controlService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		tracer:   tracer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()
	defer func() {
		if a.tracer != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.tracer.Shutdown(shutdownCtx)
		}
	}()

	var metricsSrv *http.Server
	metricsErrCh := make(chan error, 1)
	if a.cfg.Telemetry.MetricsPort > 0 && a.cfg.Telemetry.MetricsPort != a.cfg.App.Port {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.Telemetry.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		a.logger.Info("starting metrics listener", zap.String("address", metricsSrv.Addr))
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				metricsErrCh <- fmt.Errorf("run metrics server: %w", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting marina pedestal API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-metricsErrCh:
		return err
	}
}
