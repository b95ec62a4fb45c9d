// Package entrypoint wires configuration, storage and services into a
// running HTTP server.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	auditRepo "github.com/mrlokans/bookshelf/internal/database/audit"
	http_controllers "github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/logging"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/storage"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the wired application. Close releases everything Start acquired.
type App struct {
	Router *gin.Engine
	DB     *database.Database

	tasks     *tasks.Client
	scheduler *scheduler.Scheduler
	redis     *redis.Client
	cancel    context.CancelFunc
}

// NewApp builds the application from configuration. Background workers are
// not running until Start is called.
func NewApp(ctx context.Context, cfg *config.Config, version string) (*App, error) {
	app := &App{}
	ok := false
	defer func() {
		if !ok {
			app.Close(context.Background())
		}
	}()

	if cfg.Auth.JWTSecret == "" {
		secret, err := auth.GenerateSecret()
		if err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		cfg.Auth.JWTSecret = secret
		log.Warn("AUTH_JWT_SECRET is not set; generated a random secret, tokens will not survive a restart")
	}

	db, err := database.NewDatabase(cfg.Database, logging.GormLogger(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	app.DB = db

	store, err := storage.FromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initialize asset storage: %w", err)
	}

	auditor := audit.NewService(auditRepo.NewRepository(db.DB))
	reviews := services.NewReviewService(db.DB)

	// The nil checks below keep a nil *tasks.Client from becoming a non-nil
	// interface value.
	var (
		cleaner services.AssetCleaner
		ratings services.RatingsRecalculator
	)
	if cfg.Tasks.Enabled {
		app.tasks, err = tasks.NewClient(cfg.Database.Path, tasks.FromSettings(cfg.Tasks))
		if err != nil {
			return nil, fmt.Errorf("initialize task queue: %w", err)
		}
		app.tasks.Register(
			tasks.NewDeleteBookAssetsQueue(store),
			tasks.NewRecalculateRatingsQueue(reviews, auditor),
			tasks.NewPruneAuditTrailQueue(auditor),
		)
		cleaner = app.tasks
		ratings = app.tasks
	}

	app.scheduler, err = newScheduler(cfg, app.tasks, reviews, auditor)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("initialize token manager: %w", err)
	}
	authService := auth.NewService(db.DB, tokens, cfg.Auth)

	limiter, err := app.newLoginLimiter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	healthChecks := map[string]http_controllers.HealthCheck{}
	if app.redis != nil {
		client := app.redis
		healthChecks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}

	if !cfg.Global.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:        db,
		Content:         services.NewContentService(db.DB, store, cleaner, auditor),
		Library:         services.NewLibraryService(db.DB),
		Reviews:         reviews,
		Admin:           services.NewAdminService(db.DB, reviews, ratings, auditor, auditor),
		AuthService:     authService,
		AuthMiddleware:  auth.NewMiddleware(authService),
		LoginLimiter:    limiter,
		AuthAuditor:     auditor,
		UploadMaxBytes:  cfg.Storage.UploadMaxBytes,
		MetricsEnabled:  cfg.Metrics.Enabled,
		HealthChecks:    healthChecks,
		Development:     cfg.Global.IsDevelopment(),
		SecureTransport: cfg.HTTP.HTTPSOnly,
		Version:         version,
	})

	ok = true
	return app, nil
}

// Start launches the task workers and the scheduler.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	if a.tasks != nil {
		a.tasks.Start(ctx)
	}
	a.scheduler.Start(ctx)
}

// Close stops background work and releases connections.
func (a *App) Close(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.tasks != nil {
		if !a.tasks.Stop(ctx) {
			log.Warn("Task workers did not finish before shutdown deadline")
		}
		if err := a.tasks.Close(); err != nil {
			log.WithError(err).Error("Error closing task client")
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Error("Error closing redis client")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.WithError(err).Error("Error closing database")
		}
	}
}

// newLoginLimiter shares lockouts through Redis when REDIS_ADDR is set and
// keeps them in process memory otherwise.
func (a *App) newLoginLimiter(ctx context.Context, cfg *config.Config) (auth.LoginLimiter, error) {
	policy := auth.LockoutPolicy{
		MaxAttempts: cfg.Auth.MaxLoginAttempts,
		Window:      cfg.Auth.RateLimitWindow,
		Lockout:     cfg.Auth.LockoutDuration,
	}

	if cfg.Redis.Addr == "" {
		limiter, err := auth.NewRateLimiter(policy)
		if err != nil {
			return nil, fmt.Errorf("initialize login limiter: %w", err)
		}
		return limiter, nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
	}

	limiter, err := auth.NewRedisRateLimiter(a.redis, "bookshelf:login", policy)
	if err != nil {
		return nil, fmt.Errorf("initialize login limiter: %w", err)
	}
	log.WithField("addr", cfg.Redis.Addr).Info("Login rate limiting backed by redis")
	return limiter, nil
}

func newScheduler(cfg *config.Config, taskClient *tasks.Client, reviews *services.ReviewService, auditor *audit.Service) (*scheduler.Scheduler, error) {
	sched := scheduler.New()

	var (
		ratingsQueue scheduler.RatingsEnqueuer
		auditQueue   scheduler.AuditCleanupEnqueuer
	)
	if taskClient != nil {
		ratingsQueue = taskClient
		auditQueue = taskClient
	}

	if cfg.Ratings.ReconcileEnabled {
		if err := sched.Add(scheduler.RatingsReconcileJob(cfg.Ratings.ReconcileSchedule, ratingsQueue, reviews)); err != nil {
			return nil, fmt.Errorf("schedule ratings reconcile: %w", err)
		}
	}
	if cfg.Audit.RetentionDays > 0 {
		if err := sched.Add(scheduler.AuditCleanupJob(scheduler.DefaultAuditCleanupSchedule, cfg.Audit.RetentionDays, auditQueue, auditor)); err != nil {
			return nil, fmt.Errorf("schedule audit cleanup: %w", err)
		}
	}
	return sched, nil
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts down
// gracefully.
func Serve(router http.Handler, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infof("Shutdown Server, waiting %v before killing", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Server Shutdown")
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info("Server exiting")
}

func Run(cfg *config.Config, version string) {
	logging.Setup(cfg.Logging)
	log.Infof("Starting Bookshelf v%s", version)

	app, err := NewApp(context.Background(), cfg, version)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	app.Start(context.Background())

	Serve(app.Router, cfg, app.Close)
}
