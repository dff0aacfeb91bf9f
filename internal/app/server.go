// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"singr-service/internal/config"
	"singr-service/internal/db"
	adminHandler "singr-service/internal/handlers/admin"
	authHandler "singr-service/internal/handlers/auth"
	healthHandler "singr-service/internal/handlers/health"
	requestHandler "singr-service/internal/handlers/request"
	venueHandler "singr-service/internal/handlers/venue"
	wsHandler "singr-service/internal/handlers/websocket"
	"singr-service/internal/middleware"
	"singr-service/internal/pkg/jwt"
	"singr-service/internal/pkg/metrics"
	"singr-service/internal/pkg/session"
	"singr-service/internal/pkg/tracing"
	"singr-service/internal/pkg/validation"
	"singr-service/internal/repository/postgres"
	"singr-service/internal/service/access"
	authUsecase "singr-service/internal/service/auth"
	requestUsecase "singr-service/internal/service/request"
	venueUsecase "singr-service/internal/service/venue"
	"singr-service/internal/websocket"
	wsHandlers "singr-service/internal/websocket/handler"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Version is stamped at build time and reported to Sentry as the release.
var Version = "dev"

type Server struct {
	cfg    *config.AppConfig
	logger *zap.Logger

	engine *gin.Engine
	http   *http.Server

	pg    *db.Postgres
	redis *redis.Client

	stopHub     context.CancelFunc
	flushSentry func(time.Duration)
}

// NewServer connects every backing service and assembles the HTTP stack.
// Anything opened before a failure is closed again.
func NewServer(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (srv *Server, err error) {
	s := &Server{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			s.closeBackends()
		}
	}()

	// ----- Sentry -----
	flush, _, err := tracing.Init(tracing.Options{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Env,
		Release:     Version,
	}, logger)
	if err != nil {
		// error reporting is optional; keep serving without it
		logger.Warn("sentry init failed", zap.Error(err))
	}
	s.flushSentry = flush

	// ----- PostgreSQL -----
	s.pg, err = db.ConnectPostgres(ctx, db.PostgresConfig{
		URL:        cfg.DatabaseURL,
		MaxConns:   20,
		LogQueries: cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	logger.Info("postgres connected")

	if cfg.DBAutoMigrate {
		if err = postgres.Migrate(ctx, s.pg.Gorm, logger); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	// ----- Redis -----
	s.redis, err = db.NewRedisClient(ctx, db.RedisConfig{URL: cfg.RedisURL, PoolSize: 10})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	logger.Info("redis connected")

	// ----- JWT Manager -----
	jwtManager, err := jwt.LoadAndBuild(cfg.JWT())
	if err != nil {
		return nil, fmt.Errorf("load jwt keys: %w", err)
	}
	if jwtManager.Generator == nil {
		logger.Warn("JWT_PRIVATE_KEY not set; login and refresh are disabled")
	}

	reg := metrics.NewRegistry()

	// ----- Session Manager & Rate Limiter -----
	sessionManager := session.NewManager(s.redis, reg, logger)
	rateLimiter := session.NewRateLimiter(s.redis)

	// ----- Repositories -----
	authRepo := postgres.NewAuthRepository(s.pg.Pool)
	venueRepo := postgres.NewVenueRepository(s.pg.Gorm)
	requestRepo := postgres.NewRequestRepository(s.pg.Gorm)

	permissions := access.NewResolver(authRepo, s.redis, logger)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(jwtManager.Verifier, permissions, reg, logger)

	// ----- Services (Usecases) -----
	authService := authUsecase.NewAuthService(authRepo, jwtManager, sessionManager, rateLimiter, permissions, reg, logger)
	venueService := venueUsecase.NewVenueService(venueRepo, s.redis, logger)
	requestService := requestUsecase.NewRequestService(requestRepo, venueService, hub, rateLimiter, logger)

	hub.RegisterHandler(wsHandlers.NewQueueHandler(requestService))
	hubCtx, stopHub := context.WithCancel(context.Background())
	s.stopHub = stopHub
	go hub.Run(hubCtx)

	// ----- Handlers -----
	pingPostgres := healthHandler.Check(s.pg.Ping)
	pingRedis := healthHandler.Check(func(ctx context.Context) error { return s.redis.Ping(ctx).Err() })

	handlers := &Handlers{
		HealthHandler: healthHandler.NewHealthHandler(
			map[string]healthHandler.Check{"database": pingPostgres, "redis": pingRedis},
			func(ctx context.Context) error { return errors.Join(pingPostgres(ctx), pingRedis(ctx)) },
			logger,
		),
		AuthHandler:    authHandler.NewAuthHandler(authService, logger),
		VenueHandler:   venueHandler.NewVenueHandler(venueService, logger),
		RequestHandler: requestHandler.NewRequestHandler(requestService, logger),
		AdminHandler:   adminHandler.NewAdminHandler(permissions, logger),
		WSHandler:      wsHandler.NewWebSocketHandler(hub, venueService, cfg.Origins(), logger),
		AuthMiddleware: middleware.NewAuthMiddleware(jwtManager.Verifier, permissions, reg, logger),
	}

	// ----- Router -----
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.RegisterGin()

	s.engine = gin.New()
	SetupRouter(s.engine, RouterOptions{
		Logger:         logger,
		Metrics:        reg,
		RateLimiter:    rateLimiter,
		CORSOrigins:    cfg.Origins(),
		RequestLogging: cfg.EnableRequestLogging,
	}, handlers)

	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("server listening",
		zap.String("addr", s.http.Addr),
		zap.String("environment", s.cfg.Env),
		zap.String("version", Version),
	)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains HTTP, stops the hub and releases the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.closeBackends()
	s.logger.Info("server stopped")
	return err
}

func (s *Server) closeBackends() {
	if s.stopHub != nil {
		s.stopHub()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("redis close failed", zap.Error(err))
		}
	}
	if s.pg != nil {
		s.pg.Close()
	}
	if s.flushSentry != nil {
		s.flushSentry(2 * time.Second)
	}
}
