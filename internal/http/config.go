package http

import (
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/services"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Content  *services.ContentService
	Library  *services.LibraryService
	Reviews  *services.ReviewService
	Admin    *services.AdminService

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	LoginLimiter   auth.LoginLimiter // optional
	AuthAuditor    AuthAuditor       // optional

	// Limits
	UploadMaxBytes int64

	// Observability
	MetricsEnabled bool
	HealthChecks   map[string]HealthCheck

	// Development exposes error details in 500 responses.
	Development bool
	// SecureTransport adds Strict-Transport-Security.
	SecureTransport bool

	// Application info
	Version string
}
