package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/storage"
)

// FileUpload is one file of a multipart upload.
type FileUpload struct {
	File     storage.Upload
	Filename string
	Size     int64
}

type CreateBookInput struct {
	UploaderID  uint
	Title       string
	Author      string
	Description string
	Category    string
	Tags        string
	PDF         *FileUpload
	Cover       *FileUpload
}

type BookFilter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type BookPage struct {
	Books      []entities.Book `json:"books"`
	Pagination PageInfo        `json:"pagination"`
}

// BookFile is an opened asset of a book. Callers must close Content.
type BookFile struct {
	Book *entities.Book
	*storage.Object
}

// ContentService manages the book catalogue and its stored assets.
type ContentService struct {
	db      *gorm.DB
	books   *books.Repository
	users   *users.Repository
	store   storage.AssetStore
	cleaner AssetCleaner
	audit   AuditLogger
}

// NewContentService creates a content service. When cleaner is nil, assets of
// deleted books are removed synchronously; when auditor is nil nothing is audited.
func NewContentService(db *gorm.DB, store storage.AssetStore, cleaner AssetCleaner, auditor AuditLogger) *ContentService {
	if cleaner == nil {
		cleaner = &StoreCleaner{Store: store}
	}
	if auditor == nil {
		auditor = noopAudit{}
	}
	return &ContentService{
		db:      db,
		books:   books.NewRepository(db),
		users:   users.NewRepository(db),
		store:   store,
		cleaner: cleaner,
		audit:   auditor,
	}
}

// CreateBook validates and stores the uploaded PDF (and optional cover),
// then persists the book. Stored files are removed again if the insert fails.
func (s *ContentService) CreateBook(ctx context.Context, in CreateBookInput) (*entities.Book, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Category = strings.TrimSpace(in.Category)

	switch {
	case in.PDF == nil || in.PDF.File == nil:
		return nil, ErrPDFRequired
	case in.Title == "":
		return nil, ErrTitleRequired
	case in.Author == "":
		return nil, ErrAuthorRequired
	case in.Category == "":
		return nil, ErrCategoryRequired
	}

	uploader, err := s.users.GetByID(ctx, in.UploaderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load uploader: %w", err)
	}

	info, err := storage.InspectPDF(in.PDF.File, in.PDF.Size)
	if err != nil {
		return nil, err
	}

	var coverExt, coverType string
	if in.Cover != nil && in.Cover.File != nil {
		coverExt, coverType, err = storage.CoverExtension(in.Cover.File)
		switch {
		case errors.Is(err, storage.ErrUnsupportedImage):
			// An unusable cover does not block the book; it is stored without one.
			log.WithFields(log.Fields{"filename": in.Cover.Filename, "uploader_id": in.UploaderID}).
				Warn("Ignoring cover with unsupported image type")
		case err != nil:
			return nil, err
		}
	}

	var stored []string
	cleanup := func() {
		for _, key := range stored {
			if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
				log.WithError(err).WithField("key", key).Warn("Failed to remove orphaned upload")
			}
		}
	}

	pdfKey := storage.NewKey(storage.PrefixBooks, ".pdf")
	if err := s.save(ctx, pdfKey, in.PDF, storage.MIMETypePDF); err != nil {
		return nil, err
	}
	stored = append(stored, pdfKey)

	var coverKey string
	if coverExt != "" {
		coverKey = storage.NewKey(storage.PrefixCovers, coverExt)
		if err := s.save(ctx, coverKey, in.Cover, coverType); err != nil {
			cleanup()
			return nil, err
		}
		stored = append(stored, coverKey)
	}

	book := &entities.Book{
		Title:       in.Title,
		Author:      in.Author,
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Tags:        strings.TrimSpace(in.Tags),
		PDFPath:     pdfKey,
		CoverPath:   coverKey,
		PageCount:   info.Pages,
		FileSize:    in.PDF.Size,
		UploaderID:  uploader.ID,
	}
	if err := s.books.Create(ctx, book); err != nil {
		cleanup()
		return nil, fmt.Errorf("create book: %w", err)
	}

	book.Uploader = uploader
	book.AttachUploader(true)

	log.WithFields(log.Fields{"book_id": book.ID, "uploader_id": uploader.ID, "pages": info.Pages}).Info("Book uploaded")
	s.audit.LogUpload(uploader.ID, book.ID, book.Title)

	return book, nil
}

func (s *ContentService) save(ctx context.Context, key string, upload *FileUpload, contentType string) error {
	if _, err := upload.File.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload: %w", err)
	}
	if err := s.store.Save(ctx, key, upload.File, upload.Size, contentType); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// ListBooks returns one page of the catalogue, newest first.
func (s *ContentService) ListBooks(ctx context.Context, filter BookFilter) (*BookPage, error) {
	page, size := normalizePage(filter.Page, filter.PageSize)

	list, total, err := s.books.List(ctx, books.Filter{
		Category: strings.TrimSpace(filter.Category),
		Search:   filter.Search,
	}, size, pageOffset(page, size))
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	for i := range list {
		list[i].AttachUploader(false)
	}
	if list == nil {
		list = []entities.Book{}
	}

	return &BookPage{
		Books: list,
		Pagination: PageInfo{
			Page:       page,
			Limit:      size,
			Total:      total,
			TotalPages: totalPages(total, size),
		},
	}, nil
}

func (s *ContentService) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	book.AttachUploader(true)
	return book, nil
}

func (s *ContentService) IncrementViewCount(ctx context.Context, id uint) error {
	if err := s.books.IncrementViews(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// OpenBookFile returns the book together with its opened PDF.
func (s *ContentService) OpenBookFile(ctx context.Context, id uint) (*BookFile, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.open(ctx, book, book.PDFPath, ErrBookNotFound)
}

// OpenCover returns the book's cover image, or ErrCoverNotFound.
func (s *ContentService) OpenCover(ctx context.Context, id uint) (*BookFile, error) {
	book, err := s.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}
	if book.CoverPath == "" {
		return nil, ErrCoverNotFound
	}
	return s.open(ctx, book, book.CoverPath, ErrCoverNotFound)
}

func (s *ContentService) open(ctx context.Context, book *entities.Book, key string, missing error) (*BookFile, error) {
	obj, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.WithFields(log.Fields{"book_id": book.ID, "key": key}).Warn("Stored asset missing")
			return nil, missing
		}
		return nil, fmt.Errorf("open asset: %w", err)
	}
	return &BookFile{Book: book, Object: obj}, nil
}

// DeleteBook removes a book and everything referencing it. Only the uploader
// or an admin may delete; the role is read from the database.
func (s *ContentService) DeleteBook(ctx context.Context, id uint, principal *auth.Principal) error {
	if principal == nil {
		return ErrPrincipalRequired
	}

	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("get book: %w", err)
	}

	if book.UploaderID != principal.UserID {
		caller, err := s.users.GetByID(ctx, principal.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load caller: %w", err)
		}
		if caller == nil || !caller.IsAdmin() {
			return ErrNotBookOwner
		}
	}

	if err := s.books.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}

	keys := []string{book.PDFPath}
	if book.CoverPath != "" {
		keys = append(keys, book.CoverPath)
	}
	if err := s.cleaner.RemoveAssets(ctx, keys...); err != nil {
		// The rows are gone; leftover files are only wasted space.
		log.WithError(err).WithField("book_id", id).Error("Failed to schedule asset removal")
	}

	log.WithFields(log.Fields{"book_id": id, "user_id": principal.UserID}).Info("Book deleted")
	s.audit.LogDelete(principal.UserID, "book", id, book.Title)
	return nil
}

// StoreCleaner removes assets immediately.
type StoreCleaner struct {
	Store storage.AssetStore
}

func (c *StoreCleaner) RemoveAssets(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := c.Store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
