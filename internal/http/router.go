package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/metrics"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(RequestLoggerMiddleware())
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureTransport {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}
	if cfg.Development {
		router.Use(exposeErrorsMiddleware())
	}
	if cfg.MetricsEnabled {
		router.Use(metrics.Handler())
	}
	router.Use(cfg.AuthMiddleware.Handler())

	router.NoRoute(func(c *gin.Context) {
		respondFailure(c, http.StatusNotFound, "route not found")
	})
	router.NoMethod(func(c *gin.Context) {
		respondFailure(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	health := NewHealthController(cfg.Database, cfg.Version, cfg.HealthChecks)
	router.GET("/health", health.Status)
	if cfg.MetricsEnabled {
		router.GET("/metrics", metrics.Exposer())
	}

	requireAuth := cfg.AuthMiddleware.RequireAuth()
	api := router.Group("/api")

	authController := NewAuthController(cfg.AuthService, cfg.LoginLimiter, cfg.AuthAuditor)
	api.POST("/auth/signup", authController.Signup)
	api.POST("/auth/login", authController.Login)
	api.GET("/auth/profile", requireAuth, authController.Profile)

	books := NewBooksController(cfg.Content, cfg.UploadMaxBytes)
	api.GET("/books", books.List)
	api.POST("/books", requireAuth, books.Create)
	api.GET("/books/:id", books.Get)
	api.GET("/books/:id/file", books.File)
	api.GET("/books/:id/cover", books.Cover)
	api.DELETE("/books/:id", requireAuth, books.Delete)

	library := NewLibraryController(cfg.Library)
	libraryRoutes := api.Group("/library", requireAuth)
	libraryRoutes.GET("", library.List)
	libraryRoutes.POST("", library.Add)
	libraryRoutes.DELETE("/:bookId", library.Remove)
	libraryRoutes.GET("/:bookId/status", library.Status)

	reviews := NewReviewsController(cfg.Reviews)
	api.POST("/reviews", requireAuth, reviews.Submit)
	api.GET("/reviews/:bookId", reviews.List)
	api.GET("/reviews/my-review/:bookId", requireAuth, reviews.Mine)
	api.POST("/reviews/:id/helpful", requireAuth, reviews.ToggleHelpful)
	api.PUT("/reviews/:id", requireAuth, reviews.Update)
	api.DELETE("/reviews/:id", requireAuth, reviews.Delete)

	admin := NewAdminController(cfg.Admin)
	adminRoutes := api.Group("/admin", requireAuth)
	adminRoutes.GET("/check", admin.Check)
	adminRoutes.GET("/dashboard", admin.Dashboard)
	adminRoutes.GET("/books", admin.Books)
	adminRoutes.GET("/top-users", admin.TopUsers)
	adminRoutes.GET("/audit", admin.Audit)
	adminRoutes.POST("/ratings/recalculate", admin.RecalculateRatings)

	return router
}
