// Package interfaces documents the seams between the bookshelf packages.
//
// Services depend on small interfaces declared next to their consumer, so
// the HTTP layer, the task queue and the scheduler can be swapped or stubbed
// in tests without touching the concrete types.
//
// # Interface Categories
//
// ## Storage
//
//   - AssetStore: PDF and cover persistence (internal/storage/store.go),
//     implemented on the local filesystem and on MinIO/S3
//   - Upload: an uploaded multipart file (internal/storage/inspect.go)
//
// ## Authentication
//
//   - LoginLimiter: failed login tracking (internal/auth/ratelimit.go),
//     in-process or backed by Redis
//
// ## Audit Trail
//
//   - AuditLogger, AuditReader (internal/services/interfaces.go)
//   - AuditTrail, RatingsAuditor (internal/tasks)
//   - AuthAuditor (internal/http/auth.go)
//
// ## Background Work
//
//   - AssetCleaner, RatingsRecalculator (internal/services/interfaces.go)
//   - RatingsEnqueuer, AuditCleanupEnqueuer (internal/scheduler/jobs.go)
//
// # Adding a New Storage Backend
//
//  1. Implement AssetStore in internal/storage/
//
//	type GCSStore struct {
//		bucket *storage.BucketHandle
//	}
//
//	func (s *GCSStore) Save(ctx context.Context, key string, content io.Reader, size int64, contentType string) error
//	func (s *GCSStore) Open(ctx context.Context, key string) (*Object, error)
//	func (s *GCSStore) Delete(ctx context.Context, key string) error
//	func (s *GCSStore) Exists(ctx context.Context, key string) (bool, error)
//
//  2. Select it in storage.FromConfig by backend name
//
//  3. Add a compile-time check to checks.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
