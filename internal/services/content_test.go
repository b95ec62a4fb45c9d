package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/storage"
	"github.com/mrlokans/bookshelf/internal/storage/pdftest"
)

type contentFixture struct {
	svc     *ContentService
	db      *gorm.DB
	store   *storage.LocalStore
	cleaner *recordingCleaner
	audit   *recordingAudit
}

func setupContent(t *testing.T) *contentFixture {
	db := setupTestDB(t)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	cleaner := &recordingCleaner{}
	audit := &recordingAudit{}
	return &contentFixture{
		svc:     NewContentService(db, store, cleaner, audit),
		db:      db,
		store:   store,
		cleaner: cleaner,
		audit:   audit,
	}
}

func pdfUpload(pages int) *FileUpload {
	doc := pdftest.Document(pages)
	return &FileUpload{File: bytes.NewReader(doc), Filename: "book.pdf", Size: int64(len(doc))}
}

func TestContentService_CreateBook(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	uploader := createUser(t, f.db, "alice@example.com", entities.RoleUser)

	book, err := f.svc.CreateBook(ctx, CreateBookInput{
		UploaderID: uploader.ID,
		Title:      "  Atomic Habits ",
		Author:     "James Clear",
		Category:   "self-help",
		Tags:       "habits,productivity",
		PDF:        pdfUpload(2),
		Cover:      &FileUpload{File: bytes.NewReader(pdftest.PNG), Filename: "c.png", Size: int64(len(pdftest.PNG))},
	})
	require.NoError(t, err)

	assert.NotZero(t, book.ID)
	assert.Equal(t, "Atomic Habits", book.Title)
	assert.Equal(t, 2, book.PageCount)
	assert.Zero(t, book.Views)
	assert.Zero(t, book.AverageRating)
	assert.Zero(t, book.ReviewCount)
	require.NotNil(t, book.UploaderInfo)
	assert.Equal(t, uploader.ID, book.UploaderInfo.ID)
	assert.Equal(t, "alice@example.com", book.UploaderInfo.Email)

	exists, err := f.store.Exists(ctx, book.PDFPath)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = f.store.Exists(ctx, book.CoverPath)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, []string{"upload"}, f.audit.actions)
}

func TestContentService_CreateBookValidation(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	uploader := createUser(t, f.db, "alice@example.com", entities.RoleUser)

	base := CreateBookInput{UploaderID: uploader.ID, Title: "T", Author: "A", Category: "C"}

	tests := []struct {
		name   string
		mutate func(in *CreateBookInput)
		want   error
	}{
		{"missing pdf", func(in *CreateBookInput) {}, ErrPDFRequired},
		{"missing title", func(in *CreateBookInput) { in.PDF = pdfUpload(1); in.Title = " " }, ErrTitleRequired},
		{"missing author", func(in *CreateBookInput) { in.PDF = pdfUpload(1); in.Author = "" }, ErrAuthorRequired},
		{"missing category", func(in *CreateBookInput) { in.PDF = pdfUpload(1); in.Category = "" }, ErrCategoryRequired},
		{"not a pdf", func(in *CreateBookInput) {
			in.PDF = &FileUpload{File: bytes.NewReader([]byte("hello")), Size: 5}
		}, storage.ErrNotPDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := f.svc.CreateBook(ctx, in)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&entities.Book{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestContentService_CreateBookDropsUnsupportedCover(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	uploader := createUser(t, f.db, "alice@example.com", entities.RoleUser)

	book, err := f.svc.CreateBook(ctx, CreateBookInput{
		UploaderID: uploader.ID,
		Title:      "Dune",
		Author:     "Frank Herbert",
		Category:   "fiction",
		PDF:        pdfUpload(2),
		Cover:      &FileUpload{File: bytes.NewReader([]byte("not an image")), Filename: "cover.txt", Size: 12},
	})
	require.NoError(t, err)
	assert.Empty(t, book.CoverPath)
	assert.Equal(t, 2, book.PageCount)

	_, err = f.svc.OpenCover(ctx, book.ID)
	assert.ErrorIs(t, err, ErrCoverNotFound)
}

func TestContentService_ListBooks(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	u := createUser(t, f.db, "alice@example.com", entities.RoleUser)
	createBook(t, f.db, u, "Atomic Habits")
	createBook(t, f.db, u, "The Power of Habit")

	page, err := f.svc.ListBooks(ctx, BookFilter{Search: "atomic", Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Books, 1)
	assert.Equal(t, "Atomic Habits", page.Books[0].Title)
	assert.Equal(t, int64(1), page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	require.NotNil(t, page.Books[0].UploaderInfo)
	assert.Empty(t, page.Books[0].UploaderInfo.Email, "listing must not expose uploader email")

	page, err = f.svc.ListBooks(ctx, BookFilter{PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, "The Power of Habit", page.Books[0].Title, "newest first")

	page, err = f.svc.ListBooks(ctx, BookFilter{PageSize: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, page.Pagination.Limit)

	page, err = f.svc.ListBooks(ctx, BookFilter{Search: "nothing matches"})
	require.NoError(t, err)
	assert.NotNil(t, page.Books)
	assert.Empty(t, page.Books)
	assert.Zero(t, page.Pagination.TotalPages)
}

func TestContentService_GetBookAndViews(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	u := createUser(t, f.db, "alice@example.com", entities.RoleUser)
	book := createBook(t, f.db, u, "Dune")

	require.NoError(t, f.svc.IncrementViewCount(ctx, book.ID))
	require.NoError(t, f.svc.IncrementViewCount(ctx, book.ID))

	got, err := f.svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	_, err = f.svc.GetBook(ctx, 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, f.svc.IncrementViewCount(ctx, 9999), ErrBookNotFound)
}

func TestContentService_OpenBookFile(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	u := createUser(t, f.db, "alice@example.com", entities.RoleUser)

	book, err := f.svc.CreateBook(ctx, CreateBookInput{
		UploaderID: u.ID, Title: "T", Author: "A", Category: "C", PDF: pdfUpload(1),
	})
	require.NoError(t, err)

	file, err := f.svc.OpenBookFile(ctx, book.ID)
	require.NoError(t, err)
	data, err := io.ReadAll(file.Content)
	require.NoError(t, err)
	file.Content.Close()
	assert.Equal(t, pdftest.Document(1), data)

	_, err = f.svc.OpenCover(ctx, book.ID)
	assert.ErrorIs(t, err, ErrCoverNotFound)
}

func TestContentService_DeleteBook(t *testing.T) {
	f := setupContent(t)
	ctx := context.Background()
	owner := createUser(t, f.db, "a@example.com", entities.RoleUser)
	other := createUser(t, f.db, "b@example.com", entities.RoleUser)
	admin := createUser(t, f.db, "c@example.com", entities.RoleAdmin)

	t.Run("non owner is forbidden", func(t *testing.T) {
		book := createBook(t, f.db, owner, "Kept")
		err := f.svc.DeleteBook(ctx, book.ID, principalFor(other))
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		_, err = f.svc.GetBook(ctx, book.ID)
		assert.NoError(t, err)
	})

	t.Run("stale admin claim is not trusted", func(t *testing.T) {
		book := createBook(t, f.db, owner, "Claimed")
		p := principalFor(other)
		p.Role = entities.RoleAdmin
		assert.ErrorIs(t, f.svc.DeleteBook(ctx, book.ID, p), ErrNotBookOwner)
	})

	t.Run("owner cascades", func(t *testing.T) {
		book := createBook(t, f.db, owner, "Gone")
		require.NoError(t, f.db.Create(&entities.LibraryEntry{UserID: other.ID, BookID: book.ID}).Error)
		review := &entities.Review{UserID: other.ID, BookID: book.ID, Rating: 3}
		require.NoError(t, f.db.Create(review).Error)
		require.NoError(t, f.db.Create(&entities.ReviewVote{UserID: owner.ID, ReviewID: review.ID}).Error)

		require.NoError(t, f.svc.DeleteBook(ctx, book.ID, principalFor(owner)))

		for _, model := range []any{&entities.LibraryEntry{}, &entities.Review{}, &entities.ReviewVote{}} {
			var count int64
			require.NoError(t, f.db.Model(model).Count(&count).Error)
			assert.Zero(t, count)
		}
		assert.Contains(t, f.cleaner.keys, book.PDFPath)
		assert.Contains(t, f.audit.actions, "delete")
	})

	t.Run("admin may delete", func(t *testing.T) {
		book := createBook(t, f.db, owner, "Moderated")
		assert.NoError(t, f.svc.DeleteBook(ctx, book.ID, principalFor(admin)))
	})

	t.Run("missing book", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.DeleteBook(ctx, 9999, principalFor(admin)), apperr.ErrNotFound)
	})

	t.Run("no principal", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.DeleteBook(ctx, 1, nil), apperr.ErrUnauthorized)
	})
}

func TestStoreCleaner(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "books/x.pdf", bytes.NewReader([]byte("x")), 1, storage.MIMETypePDF))

	cleaner := &StoreCleaner{Store: store}
	require.NoError(t, cleaner.RemoveAssets(ctx, "books/x.pdf", "covers/missing.png"))

	exists, err := store.Exists(ctx, "books/x.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}
