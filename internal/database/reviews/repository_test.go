package reviews

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
)

type fixture struct {
	repo  *Repository
	db    *gorm.DB
	alice *entities.User
	bob   *entities.User
	book  *entities.Book
}

func setupTestDB(t *testing.T) *fixture {
	db, err := database.Connect(config.Database{
		Type: config.DatabaseSQLite,
		Path: filepath.Join(t.TempDir(), "reviews.db"),
	}, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	alice := &entities.User{Email: "alice@example.com", DisplayName: "Alice", PasswordHash: "x"}
	bob := &entities.User{Email: "bob@example.com", DisplayName: "Bob", PasswordHash: "x"}
	require.NoError(t, db.Create(alice).Error)
	require.NoError(t, db.Create(bob).Error)

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", Category: "fiction", PDFPath: "p.pdf", UploaderID: alice.ID}
	require.NoError(t, db.Create(book).Error)

	return &fixture{repo: NewRepository(db), db: db, alice: alice, bob: bob, book: book}
}

func TestRepository_Upsert(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	created, err := f.repo.Upsert(ctx, f.alice.ID, f.book.ID, 4, "Great")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, 4, created.Rating)
	require.NotNil(t, created.User)
	assert.Equal(t, "Alice", created.User.DisplayName)

	updated, err := f.repo.Upsert(ctx, f.alice.ID, f.book.ID, 2, "Changed my mind")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 2, updated.Rating)
	assert.Equal(t, "Changed my mind", updated.Comment)

	var count int64
	f.db.Model(&entities.Review{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRepository_ToggleVote(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	review, err := f.repo.Upsert(ctx, f.alice.ID, f.book.ID, 5, "")
	require.NoError(t, err)

	voted, count, err := f.repo.ToggleVote(ctx, f.bob.ID, review.ID)
	require.NoError(t, err)
	assert.True(t, voted)
	assert.Equal(t, 1, count)

	assert.Equal(t, int64(1), countVotes(t, f, f.bob.ID, review.ID))

	voted, count, err = f.repo.ToggleVote(ctx, f.bob.ID, review.ID)
	require.NoError(t, err)
	assert.False(t, voted)
	assert.Equal(t, 0, count)

	assert.Zero(t, countVotes(t, f, f.bob.ID, review.ID))
}

func countVotes(t *testing.T, f *fixture, userID, reviewID uint) int64 {
	var n int64
	require.NoError(t, f.db.Model(&entities.ReviewVote{}).
		Where("user_id = ? AND review_id = ?", userID, reviewID).Count(&n).Error)
	return n
}

func TestRepository_ListForBookOrdering(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	first, err := f.repo.Upsert(ctx, f.alice.ID, f.book.ID, 3, "first")
	require.NoError(t, err)
	second, err := f.repo.Upsert(ctx, f.bob.ID, f.book.ID, 5, "second")
	require.NoError(t, err)

	list, total, err := f.repo.ListForBook(ctx, f.book.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first when helpful counts tie")

	_, _, err = f.repo.ToggleVote(ctx, f.bob.ID, first.ID)
	require.NoError(t, err)

	list, _, err = f.repo.ListForBook(ctx, f.book.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, list[0].ID, "most helpful first")

	page, total, err := f.repo.ListForBook(ctx, f.book.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)
}

func TestRepository_DeleteRemovesVotes(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	review, err := f.repo.Upsert(ctx, f.alice.ID, f.book.ID, 5, "")
	require.NoError(t, err)
	_, _, err = f.repo.ToggleVote(ctx, f.bob.ID, review.ID)
	require.NoError(t, err)

	require.NoError(t, f.repo.Delete(ctx, review.ID))

	var votes int64
	f.db.Model(&entities.ReviewVote{}).Count(&votes)
	assert.Zero(t, votes)

	_, err = f.repo.GetByID(ctx, review.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, f.repo.Delete(ctx, review.ID), gorm.ErrRecordNotFound)
}

func TestRepository_Update(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	review, err := f.repo.Upsert(ctx, f.alice.ID, f.book.ID, 5, "keep")
	require.NoError(t, err)

	require.NoError(t, f.repo.Update(ctx, review.ID, map[string]any{"rating": 1}))
	found, err := f.repo.GetByID(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.Rating)
	assert.Equal(t, "keep", found.Comment)

	require.NoError(t, f.repo.Update(ctx, review.ID, nil))
}
