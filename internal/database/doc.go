// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup (sqlite, postgres, mysql) and migrations
//	├── users/           # User accounts, roles and per-user statistics
//	├── books/           # Book metadata, listing, view counters and rating aggregates
//	├── library/         # Per-user saved books
//	├── reviews/         # Reviews and helpful votes
//	└── audit/           # Audit events
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type bound to a *gorm.DB. Services
// that need several writes to commit together create repositories over the
// transaction handle:
//
//	err := db.Transaction(func(tx *gorm.DB) error {
//		if err := reviews.NewRepository(tx).Upsert(ctx, review); err != nil {
//			return err
//		}
//		return books.NewRepository(tx).RecomputeRating(ctx, review.BookID)
//	})
//
// Repositories return gorm.ErrRecordNotFound unchanged; mapping to the
// application error kinds happens in the services.
package database
