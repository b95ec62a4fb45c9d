package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mrlokans/bookshelf/internal/services"
)

const (
	JobRatingsReconcile = "ratings_reconcile"
	JobAuditCleanup     = "audit_cleanup"

	DefaultAuditCleanupSchedule = "0 4 * * 0"
)

// RatingsEnqueuer hands a recalculation to the task queue.
type RatingsEnqueuer interface {
	EnqueueRatingsRecalculation(ctx context.Context, requestedBy uint) error
}

// RatingsRecalculator recomputes ratings in the calling goroutine.
type RatingsRecalculator interface {
	RecalculateRatings(ctx context.Context) (services.RatingsReport, error)
}

// AuditCleaner deletes audit events older than retention.
type AuditCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// AuditCleanupEnqueuer hands an audit cleanup to the task queue.
type AuditCleanupEnqueuer interface {
	EnqueueAuditCleanup(ctx context.Context, retentionDays int) error
}

// RatingsReconcileJob recomputes all aggregates on schedule. When queue is
// non-nil the work is enqueued, otherwise it runs inline.
func RatingsReconcileJob(schedule string, queue RatingsEnqueuer, inline RatingsRecalculator) Job {
	return Job{
		Name:     JobRatingsReconcile,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			if queue != nil {
				return queue.EnqueueRatingsRecalculation(ctx, 0)
			}
			if inline == nil {
				return fmt.Errorf("no ratings recalculator configured")
			}
			report, err := inline.RecalculateRatings(ctx)
			if err != nil {
				return err
			}
			if report.BooksFailed > 0 {
				return fmt.Errorf("%d of %d books failed", report.BooksFailed, report.BooksFailed+report.BooksProcessed)
			}
			return nil
		},
	}
}

// AuditCleanupJob prunes old audit events on schedule.
func AuditCleanupJob(schedule string, retentionDays int, queue AuditCleanupEnqueuer, inline AuditCleaner) Job {
	return Job{
		Name:     JobAuditCleanup,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			if queue != nil {
				return queue.EnqueueAuditCleanup(ctx, retentionDays)
			}
			if inline == nil {
				return fmt.Errorf("no audit cleaner configured")
			}
			_, err := inline.DeleteOldEvents(ctx, time.Duration(retentionDays)*24*time.Hour)
			return err
		},
	}
}
