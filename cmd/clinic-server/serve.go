package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/moutazmahmoud/clinic-pwa/internal/config"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/appointment"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/clinic"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/patient"
	"github.com/moutazmahmoud/clinic-pwa/internal/domain/scheduling"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/apierror"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/auth"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/cache"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/db"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/logging"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/middleware"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/notify"
	"github.com/moutazmahmoud/clinic-pwa/internal/platform/telemetry"
)

const (
	version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

// database is the pool the server runs on: *pgxpool.Pool in production.
type database interface {
	db.Pool
	db.Pinger
}

type serverDeps struct {
	cfg       *config.Config
	logger    zerolog.Logger
	db        database
	cache     cache.Availability
	enqueuer  notify.Enqueuer
	telemetry *telemetry.Provider
	location  *time.Location
	jwksURL   string
}

// newServer wires services and handlers onto a new echo instance.
func newServer(d serverDeps) (*echo.Echo, error) {
	cfg, logger := d.cfg, d.logger

	perms, err := auth.NewPermissions()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apierror.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(telemetry.TracingMiddleware())
	e.Use(d.telemetry.MetricsMiddleware())
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", appointment.HeaderIdempotencyKey,
			"X-Dev-Role", "X-Dev-User", "X-Dev-Email"},
	}))
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Auth middleware
	if cfg.DevAuth() {
		logger.Warn().Msg("development auth enabled: identity comes from X-Dev-* headers")
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:       cfg.AuthIssuer,
			Audience:     cfg.AuthAudience,
			JWKSURL:      d.jwksURL,
			SigningKey:   []byte(cfg.AuthJWTSecret),
			IsAdminEmail: cfg.IsAdminEmail,
			Skipper:      auth.AuthSkipper,
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(d.db))
	e.GET("/metrics", d.telemetry.PrometheusHandler())

	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
		IdleTTL:           10 * time.Minute,
	}))

	tx := db.PoolTransactor{Pool: d.db}
	bookingMetrics := telemetry.NewBookingMetrics(d.telemetry.Registerer())

	clinicRepo := clinic.NewRepoPG(d.db)
	clinicSvc := clinic.NewService(clinicRepo, d.cache, logger)
	clinic.NewHandler(clinicSvc, perms).RegisterRoutes(apiV1)

	patientSvc := patient.NewService(patient.NewRepoPG(d.db), cfg.PhoneDefaultRegion, logger)
	patient.NewHandler(patientSvc, perms).RegisterRoutes(apiV1)

	schedulingSvc := scheduling.NewService(scheduling.Deps{
		Repo:      scheduling.NewRepoPG(d.db),
		Durations: clinicRepo,
		Tx:        tx,
		Cache:     d.cache,
		Metrics:   bookingMetrics,
		Location:  d.location,
		Logger:    logger,
	})
	scheduling.NewHandler(schedulingSvc, clinicSvc, perms).RegisterRoutes(apiV1)

	appointmentSvc := appointment.NewService(appointment.Deps{
		Repo:         appointment.NewRepoPG(d.db),
		Availability: schedulingSvc,
		Tx:           tx,
		Enqueuer:     d.enqueuer,
		Metrics:      bookingMetrics,
		PhoneRegion:  cfg.PhoneDefaultRegion,
		Location:     d.location,
		Logger:       logger,
	})
	appointment.NewHandler(appointmentSvc, clinicSvc, patientSvc, perms).RegisterRoutes(apiV1)

	return e, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closer := logging.New(logging.OptionsFromConfig(cfg), nil)
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}
	loc, _ := cfg.Location()

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	deps := serverDeps{
		cfg:       cfg,
		logger:    logger,
		db:        pool,
		cache:     cache.Noop{},
		enqueuer:  notify.NoopEnqueuer{},
		telemetry: telemetry.NewProvider(),
		location:  loc,
		jwksURL:   cfg.AuthJWKSURL,
	}

	// Redis is optional: without it availability is computed on every
	// request and no notifications are queued.
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error().Err(err).Msg("failed to connect to redis")
			return err
		}
		defer rdb.Close()
		deps.cache = cache.NewRedis(rdb, cfg.AvailabilityCacheTTL)

		queue, err := notify.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer queue.Close()
		deps.enqueuer = notify.NewAsynqEnqueuer(queue, cfg.ReminderLeadTime)
		logger.Info().Msg("redis cache and notification queue enabled")
	} else {
		logger.Warn().Msg("REDIS_URL not set: availability cache and notifications disabled")
	}

	if !cfg.DevAuth() && cfg.AuthJWTSecret == "" && deps.jwksURL == "" && cfg.AuthIssuer != "" {
		url, err := auth.DiscoverJWKSURL(ctx, cfg.AuthIssuer)
		if err != nil {
			return fmt.Errorf("discover JWKS: %w", err)
		}
		deps.jwksURL = url
	}

	e, err := newServer(deps)
	if err != nil {
		return err
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
