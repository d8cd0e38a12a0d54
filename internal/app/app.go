package app

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

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"
	"gorm.io/gorm"

	"github.com/simp-lee/hireline/internal/config"
	"github.com/simp-lee/hireline/internal/middleware"
	"github.com/simp-lee/hireline/internal/module/application"
	"github.com/simp-lee/hireline/internal/module/auth"
	"github.com/simp-lee/hireline/internal/module/candidate"
	"github.com/simp-lee/hireline/internal/module/company"
	"github.com/simp-lee/hireline/internal/module/contact"
	"github.com/simp-lee/hireline/internal/module/job"
	"github.com/simp-lee/hireline/internal/module/user"
	"github.com/simp-lee/hireline/internal/storage"
)

// App holds the core application dependencies and the HTTP server.
type App struct {
	engine *gin.Engine
	db     *gorm.DB
	logger *logger.Logger
	cfg    *config.Config
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// slowRequestThreshold raises the access log level of slow successful requests.
const slowRequestThreshold = 2 * time.Second

var newHTTPServer = func(addr string, handler http.Handler) httpServer {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

var notifyContext = func(parent context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// New creates and wires a fully configured App from the given Config.
//
// It sets up logging and the database, migrates the schema, then builds the
// engine with NewEngine.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	success := false

	log, err := config.SetupLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	if cfg.Server.Mode == gin.DebugMode && cfg.Server.Host == "0.0.0.0" {
		log.Warn("insecure server config: debug mode on 0.0.0.0 may expose debug behavior and permissive CORS")
	}
	defer func() {
		if success {
			return
		}
		if err := log.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}()

	db, err := config.SetupDatabase(&cfg.Database, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	defer func() {
		if success {
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", slog.Any("error", err))
		}
	}()

	if err := config.Migrate(db); err != nil {
		return nil, err
	}
	log.Info("schema migrated")

	engine, err := NewEngine(cfg, db, log.Logger)
	if err != nil {
		return nil, err
	}

	success = true
	return &App{
		engine: engine,
		db:     db,
		logger: log,
		cfg:    cfg,
	}, nil
}

// NewEngine builds the gin engine over an already migrated db: modules,
// middleware and routes. It also seeds the configured admin account.
func NewEngine(cfg *config.Config, db *gorm.DB, log *slog.Logger) (*gin.Engine, error) {
	if cfg == nil || db == nil || log == nil {
		return nil, errors.New("config, database and logger are required")
	}
	if err := validateGinMode(cfg.Server.Mode); err != nil {
		return nil, err
	}

	// Manual dependency injection: repository -> service -> handler -> module.
	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("setup tokens: %w", err)
	}
	files, err := storage.NewLocal(cfg.Uploads.Dir, cfg.Uploads.MaxBytes(), log)
	if err != nil {
		return nil, fmt.Errorf("setup uploads: %w", err)
	}

	userRepo := user.NewUserRepository(db)
	userSvc := user.NewUserService(userRepo, log)

	modules := []Module{
		user.NewModule(user.NewUserHandler(userSvc)),
		auth.NewModule(auth.NewHandler(auth.NewService(tokens, userRepo))),
		company.NewModule(company.NewHandler(company.NewService(company.NewRepository(db)))),
		job.NewModule(job.NewHandler(job.NewService(job.NewRepository(db), log))),
		candidate.NewModule(candidate.NewHandler(candidate.NewService(candidate.NewRepository(db)))),
		application.NewModule(application.NewHandler(
			application.NewService(application.NewRepository(db), files, log),
			files.MaxBytes(),
		)),
		contact.NewModule(contact.NewHandler(
			contact.NewService(cfg.Client.NotificationRecipient, contact.NewLogNotifier(log)),
		)),
	}

	if err := seedAdmin(cfg.Auth.Admin, userSvc, log); err != nil {
		return nil, err
	}

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	metrics := middleware.NewMetrics()

	engine.Use(
		middleware.Recovery(log),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{
			TrustUpstream: cfg.Server.TrustRequestID,
		}),
		middleware.LoggerWithConfig(log, middleware.LoggerConfig{
			SkipPaths:     []string{"/health", "/metrics"},
			SlowThreshold: slowRequestThreshold,
		}),
		metrics.Middleware(),
		middleware.CORSWithConfig(resolveCORSConfig(cfg.Server.Mode, cfg.Server.CORS)),
		middleware.Timeout(cfg.Server.RequestTimeout()),
	)

	if err := RegisterRoutes(engine, &RouteDeps{
		Modules:  modules,
		DB:       db,
		Verifier: tokens,
		Metrics:  metrics,
	}); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}
	return engine, nil
}

func seedAdmin(admin config.AdminConfig, svc user.Service, log *slog.Logger) error {
	if admin.Email == "" {
		return nil
	}
	created, err := svc.EnsureAdmin(context.Background(), admin.Name, admin.Email, admin.Password)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.Info("admin account created", slog.String("email", admin.Email))
	}
	return nil
}

// resolveCORSConfig converts configured CORS settings. In release mode with
// no allowlist, cross-origin requests are denied.
func resolveCORSConfig(mode string, c config.CORSConfig) middleware.CORSConfig {
	corsConfig := middleware.DefaultCORSConfig()

	switch {
	case len(c.AllowOrigins) > 0:
		corsConfig.AllowOrigins = c.AllowOrigins
	case mode == gin.ReleaseMode:
		corsConfig.AllowOrigins = []string{}
	}
	if len(c.AllowMethods) > 0 {
		corsConfig.AllowMethods = c.AllowMethods
	}
	if len(c.AllowHeaders) > 0 {
		corsConfig.AllowHeaders = c.AllowHeaders
	}
	corsConfig.AllowCredentials = c.AllowCredentials
	if d := c.MaxAgeDuration(); d > 0 {
		corsConfig.MaxAge = d
	}
	return corsConfig
}

func validateGinMode(mode string) error {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return nil
	default:
		return fmt.Errorf("invalid server.mode %q: must be one of %q, %q, %q", mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
}

// Run starts the HTTP server and blocks until a shutdown signal is received.
// It performs graceful shutdown with a 5-second timeout and closes the database
// connection.
func (a *App) Run() error {
	if a == nil {
		return errors.New("app is nil")
	}
	if a.cfg == nil {
		return errors.New("app config is nil")
	}
	if a.engine == nil {
		return errors.New("app engine is nil")
	}

	log := slog.Default()
	if a.logger != nil {
		log = a.logger.Logger
	}

	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)
	srv := newHTTPServer(addr, a.engine)

	ctx, stop := notifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("server error: %w", err)
	}

	if runErr == nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown error", slog.Any("error", err))
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				log.Error("database close error", slog.Any("error", err))
			} else {
				log.Info("database connection closed")
			}
		}
	}

	log.Info("server stopped")
	if a.logger != nil {
		if err := a.logger.Close(); err != nil {
			slog.Error("logger close error", slog.Any("error", err))
		}
	}
	return runErr
}
