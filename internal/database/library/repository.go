// Package library provides database operations for per-user saved books.
package library

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add creates an entry. A second entry for the same pair yields gorm.ErrDuplicatedKey.
func (r *Repository) Add(ctx context.Context, userID, bookID uint) (*entities.LibraryEntry, error) {
	entry := &entities.LibraryEntry{UserID: userID, BookID: bookID}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *Repository) Exists(ctx context.Context, userID, bookID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.LibraryEntry{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Count(&count).Error
	return count > 0, err
}

// Remove deletes the entry if present and reports how many rows went away.
func (r *Repository) Remove(ctx context.Context, userID, bookID uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Delete(&entities.LibraryEntry{})
	return result.RowsAffected, result.Error
}

// ListForUser returns the user's entries with their books, most recently added first.
func (r *Repository) ListForUser(ctx context.Context, userID uint) ([]entities.LibraryEntry, error) {
	var entries []entities.LibraryEntry
	err := r.db.WithContext(ctx).
		Preload("Book").
		Preload("Book.Uploader").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.LibraryEntry{}).Count(&count).Error
	return count, err
}
