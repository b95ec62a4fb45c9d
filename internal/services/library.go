package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/library"
	"github.com/mrlokans/bookshelf/internal/entities"
)

// LibraryItem is a saved book together with the time it was saved.
type LibraryItem struct {
	entities.Book
	AddedAt time.Time `json:"addedAt"`
}

// LibraryService manages users' personal collections of saved books.
type LibraryService struct {
	books   *books.Repository
	library *library.Repository
}

func NewLibraryService(db *gorm.DB) *LibraryService {
	return &LibraryService{
		books:   books.NewRepository(db),
		library: library.NewRepository(db),
	}
}

// ListLibrary returns the user's saved books, most recently added first.
func (s *LibraryService) ListLibrary(ctx context.Context, userID uint) ([]LibraryItem, error) {
	entries, err := s.library.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}

	items := make([]LibraryItem, 0, len(entries))
	for _, entry := range entries {
		if entry.Book == nil {
			continue
		}
		entry.Book.AttachUploader(false)
		items = append(items, LibraryItem{Book: *entry.Book, AddedAt: entry.CreatedAt})
	}
	return items, nil
}

// AddToLibrary saves a book for the user. Saving the same book twice fails
// with ErrAlreadyInLibrary, including when two requests race.
func (s *LibraryService) AddToLibrary(ctx context.Context, userID, bookID uint) (*entities.LibraryEntry, error) {
	exists, err := s.books.Exists(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}
	if !exists {
		return nil, ErrBookNotFound
	}

	entry, err := s.library.Add(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyInLibrary
		}
		return nil, fmt.Errorf("add to library: %w", err)
	}
	return entry, nil
}

// RemoveFromLibrary is idempotent: removing an unsaved book succeeds.
func (s *LibraryService) RemoveFromLibrary(ctx context.Context, userID, bookID uint) error {
	if _, err := s.library.Remove(ctx, userID, bookID); err != nil {
		return fmt.Errorf("remove from library: %w", err)
	}
	return nil
}

func (s *LibraryService) IsInLibrary(ctx context.Context, userID, bookID uint) (bool, error) {
	ok, err := s.library.Exists(ctx, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("check library: %w", err)
	}
	return ok, nil
}
