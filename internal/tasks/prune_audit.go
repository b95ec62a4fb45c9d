package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	log "github.com/sirupsen/logrus"
)

// AuditTrail is the audit store as seen by the prune task. The prune itself
// is recorded as an admin event so the trail shows when it was shortened.
type AuditTrail interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
	LogAdmin(userID uint, action, description string)
}

// PruneAuditTrailTask deletes audit events created before Cutoff. The cutoff
// is fixed at enqueue time so a retry deletes the same range.
type PruneAuditTrailTask struct {
	Cutoff time.Time `json:"cutoff"`
}

func (t PruneAuditTrailTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "prune_audit_trail",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: true,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// NewPruneAuditTrailTask builds a task for events older than retentionDays.
func NewPruneAuditTrailTask(retentionDays int, now time.Time) (PruneAuditTrailTask, error) {
	if retentionDays <= 0 {
		return PruneAuditTrailTask{}, fmt.Errorf("audit retention must be positive, got %d days", retentionDays)
	}
	return PruneAuditTrailTask{Cutoff: now.AddDate(0, 0, -retentionDays).UTC()}, nil
}

func PruneAuditTrailProcessor(trail AuditTrail) backlite.QueueProcessor[PruneAuditTrailTask] {
	return func(ctx context.Context, task PruneAuditTrailTask) error {
		if trail == nil {
			return fmt.Errorf("audit trail not configured")
		}
		if task.Cutoff.IsZero() {
			return errors.New("prune task has no cutoff")
		}

		retention := time.Since(task.Cutoff)
		if retention <= 0 {
			return nil
		}

		deleted, err := trail.DeleteOldEvents(ctx, retention)
		if err != nil {
			return fmt.Errorf("prune audit trail: %w", err)
		}
		if deleted > 0 {
			trail.LogAdmin(0, "audit_prune",
				fmt.Sprintf("Removed %d audit events created before %s", deleted, task.Cutoff.Format(time.RFC3339)))
		}

		log.WithFields(log.Fields{"deleted": deleted, "cutoff": task.Cutoff}).Info("[TASK] Pruned audit trail")
		return nil
	}
}

func NewPruneAuditTrailQueue(trail AuditTrail) backlite.Queue {
	return backlite.NewQueue(PruneAuditTrailProcessor(trail))
}
