package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"mime/multipart"

	"github.com/mrlokans/bookshelf/internal/audit"
	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/http"
	"github.com/mrlokans/bookshelf/internal/scheduler"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/storage"
	"github.com/mrlokans/bookshelf/internal/tasks"
)

// =============================================================================
// Storage
// =============================================================================

// AssetStore implementations
var _ storage.AssetStore = (*storage.LocalStore)(nil)
var _ storage.AssetStore = (*storage.MinioStore)(nil)

// Upload implementations
var _ storage.Upload = (multipart.File)(nil)

// =============================================================================
// Authentication
// =============================================================================

// LoginLimiter implementations
var _ auth.LoginLimiter = (*auth.RateLimiter)(nil)
var _ auth.LoginLimiter = (*auth.RedisRateLimiter)(nil)

// =============================================================================
// Audit Trail
// =============================================================================

var _ services.AuditLogger = (*audit.Service)(nil)
var _ services.AuditReader = (*audit.Service)(nil)
var _ tasks.AuditTrail = (*audit.Service)(nil)
var _ tasks.RatingsAuditor = (*audit.Service)(nil)
var _ scheduler.AuditCleaner = (*audit.Service)(nil)
var _ http.AuthAuditor = (*audit.Service)(nil)

// =============================================================================
// Background Work
// =============================================================================

var _ services.AssetCleaner = (*services.StoreCleaner)(nil)

// The task client stands in for inline work wherever a queue is enabled.
var _ services.AssetCleaner = (*tasks.Client)(nil)
var _ services.RatingsRecalculator = (*tasks.Client)(nil)
var _ scheduler.RatingsEnqueuer = (*tasks.Client)(nil)
var _ scheduler.AuditCleanupEnqueuer = (*tasks.Client)(nil)

// Inline ratings recomputation
var _ tasks.RatingsRecalculator = (*services.ReviewService)(nil)
var _ scheduler.RatingsRecalculator = (*services.ReviewService)(nil)
