package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	log "github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/services"
)

// RatingsRecalculator recomputes the rating aggregate of every book.
type RatingsRecalculator interface {
	RecalculateRatings(ctx context.Context) (services.RatingsReport, error)
}

// RatingsAuditor records the outcome of a recalculation.
type RatingsAuditor interface {
	LogRatings(userID uint, description string, err error)
}

// RecalculateRatingsTask recomputes all book ratings. RequestedBy is zero
// for scheduled runs.
type RecalculateRatingsTask struct {
	RequestedBy uint `json:"requested_by"`
}

func (t RecalculateRatingsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "recalculate_ratings",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func RecalculateRatingsProcessor(recalc RatingsRecalculator, auditor RatingsAuditor) backlite.QueueProcessor[RecalculateRatingsTask] {
	return func(ctx context.Context, task RecalculateRatingsTask) error {
		if recalc == nil {
			return fmt.Errorf("ratings recalculator not configured")
		}

		report, err := recalc.RecalculateRatings(ctx)
		if auditor != nil {
			auditor.LogRatings(task.RequestedBy,
				fmt.Sprintf("Recalculated %d books, %d failed", report.BooksProcessed, report.BooksFailed), err)
		}
		if err != nil {
			return fmt.Errorf("recalculate ratings: %w", err)
		}

		log.WithFields(log.Fields{
			"processed":    report.BooksProcessed,
			"failed":       report.BooksFailed,
			"requested_by": task.RequestedBy,
		}).Info("[TASK] Recalculated book ratings")
		return nil
	}
}

func NewRecalculateRatingsQueue(recalc RatingsRecalculator, auditor RatingsAuditor) backlite.Queue {
	return backlite.NewQueue(RecalculateRatingsProcessor(recalc, auditor))
}
