package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"
	log "github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/storage"
)

// DeleteBookAssetsTask removes the stored PDF and cover of a deleted book.
type DeleteBookAssetsTask struct {
	Keys []string `json:"keys"`
}

func (t DeleteBookAssetsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "delete_book_assets",
		MaxAttempts: 5,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// DeleteBookAssetsProcessor deletes every key of the task. Missing objects
// count as deleted, so retries after a partial failure are safe.
func DeleteBookAssetsProcessor(store storage.AssetStore) backlite.QueueProcessor[DeleteBookAssetsTask] {
	return func(ctx context.Context, task DeleteBookAssetsTask) error {
		if store == nil {
			return fmt.Errorf("asset store not configured")
		}

		var errs []error
		for _, key := range task.Keys {
			if err := store.Delete(ctx, key); err != nil {
				errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
			}
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}

		log.WithField("keys", task.Keys).Info("[TASK] Removed book assets")
		return nil
	}
}

func NewDeleteBookAssetsQueue(store storage.AssetStore) backlite.Queue {
	return backlite.NewQueue(DeleteBookAssetsProcessor(store))
}
