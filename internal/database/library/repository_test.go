package library

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	db, err := database.Connect(config.Database{
		Type: config.DatabaseSQLite,
		Path: filepath.Join(t.TempDir(), "library.db"),
	}, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db), db
}

func seed(t *testing.T, db *gorm.DB) (*entities.User, []*entities.Book) {
	user := &entities.User{Email: "reader@example.com", DisplayName: "Reader", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	var list []*entities.Book
	for _, title := range []string{"Dune", "Emma"} {
		book := &entities.Book{Title: title, Author: "A", Category: "fiction", PDFPath: "p.pdf", UploaderID: user.ID}
		require.NoError(t, db.Create(book).Error)
		list = append(list, book)
	}
	return user, list
}

func TestRepository_AddDuplicate(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	user, list := seed(t, db)

	entry, err := repo.Add(ctx, user.ID, list[0].ID)
	require.NoError(t, err)
	assert.NotZero(t, entry.ID)

	_, err = repo.Add(ctx, user.ID, list[0].ID)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepository_Remove(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	user, list := seed(t, db)

	_, err := repo.Add(ctx, user.ID, list[0].ID)
	require.NoError(t, err)

	removed, err := repo.Remove(ctx, user.ID, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	removed, err = repo.Remove(ctx, user.ID, list[0].ID)
	require.NoError(t, err)
	assert.Zero(t, removed)

	exists, err := repo.Exists(ctx, user.ID, list[0].ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepository_ListForUser(t *testing.T) {
	repo, db := setupTestDB(t)
	ctx := context.Background()
	user, list := seed(t, db)

	first, err := repo.Add(ctx, user.ID, list[0].ID)
	require.NoError(t, err)
	require.NoError(t, db.Model(first).UpdateColumn("created_at", time.Now().Add(-time.Hour)).Error)
	_, err = repo.Add(ctx, user.ID, list[1].ID)
	require.NoError(t, err)

	entries, err := repo.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.NotNil(t, entries[0].Book)
	assert.Equal(t, "Emma", entries[0].Book.Title)
	assert.Equal(t, "Dune", entries[1].Book.Title)
	assert.NotNil(t, entries[0].Book.Uploader)

	none, err := repo.ListForUser(ctx, 999)
	require.NoError(t, err)
	assert.Empty(t, none)
}
