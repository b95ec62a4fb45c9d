package services

import (
	"context"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// AuditLogger records security-relevant events. *audit.Service implements it.
type AuditLogger interface {
	LogUpload(userID, bookID uint, title string)
	LogDelete(userID uint, entityType string, entityID uint, entityName string)
	LogAdmin(userID uint, action, description string)
	LogRatings(userID uint, description string, err error)
}

// AuditReader lists stored audit events.
type AuditReader interface {
	GetEvents(ctx context.Context, eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// AssetCleaner removes stored files that no database row references anymore.
// The task client implements it by enqueueing a background job.
type AssetCleaner interface {
	RemoveAssets(ctx context.Context, keys ...string) error
}

// RatingsRecalculator schedules a recomputation of every book's aggregate rating.
type RatingsRecalculator interface {
	EnqueueRatingsRecalculation(ctx context.Context, requestedBy uint) error
}

type noopAudit struct{}

func (noopAudit) LogUpload(uint, uint, string)         {}
func (noopAudit) LogDelete(uint, string, uint, string) {}
func (noopAudit) LogAdmin(uint, string, string)        {}
func (noopAudit) LogRatings(uint, string, error)       {}
func (noopAudit) GetEvents(context.Context, entities.AuditEventType, int, int) ([]entities.AuditEvent, int64, error) {
	return nil, 0, nil
}
