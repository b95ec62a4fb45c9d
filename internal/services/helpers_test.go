package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(config.Database{
		Type: config.DatabaseSQLite,
		Path: filepath.Join(t.TempDir(), "services.db"),
	}, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string, role entities.Role) *entities.User {
	user := &entities.User{Email: email, DisplayName: email[:1], PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createBook(t *testing.T, db *gorm.DB, uploader *entities.User, title string) *entities.Book {
	book := &entities.Book{
		Title:      title,
		Author:     "Author of " + title,
		Category:   "fiction",
		PDFPath:    "books/" + title + ".pdf",
		UploaderID: uploader.ID,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

func principalFor(u *entities.User) *auth.Principal {
	return &auth.Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
}

type recordingCleaner struct {
	mu   sync.Mutex
	keys []string
}

func (c *recordingCleaner) RemoveAssets(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, keys...)
	return nil
}

type recordingAudit struct {
	noopAudit
	mu      sync.Mutex
	actions []string
}

func (a *recordingAudit) record(action string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

func (a *recordingAudit) LogUpload(uint, uint, string)         { a.record("upload") }
func (a *recordingAudit) LogDelete(uint, string, uint, string) { a.record("delete") }
func (a *recordingAudit) LogAdmin(_ uint, action, _ string)    { a.record(action) }
func (a *recordingAudit) LogRatings(uint, string, error)       { a.record("ratings") }

type recordingRatings struct {
	calls []uint
}

func (r *recordingRatings) EnqueueRatingsRecalculation(_ context.Context, requestedBy uint) error {
	r.calls = append(r.calls, requestedBy)
	return nil
}
