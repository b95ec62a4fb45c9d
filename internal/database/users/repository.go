// Package users provides database operations for user accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetByEmail(ctx, "reader@example.com")
package users

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// Stats is a user row with the counters shown on the admin dashboard.
type Stats struct {
	ID            uint          `json:"id"`
	Email         string        `json:"email"`
	DisplayName   string        `json:"displayName"`
	Role          entities.Role `json:"role"`
	CreatedAt     time.Time     `json:"joinedAt"`
	BooksUploaded int64         `json:"booksUploaded"`
	LibraryItems  int64         `json:"libraryItems"`
}

// UploaderRank is one row of the top uploaders ranking.
type UploaderRank struct {
	UserID      uint   `json:"userId"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
	BookCount   int64  `json:"bookCount"`
}

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a user. A taken email yields gorm.ErrDuplicatedKey.
func (r *Repository) Create(ctx context.Context, user *entities.User) error {
	if user.Role == "" {
		user.Role = entities.RoleUser
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail looks a user up by exact email match.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsByEmail reports whether an account already uses email.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// SetRole changes the role of the user with the given email.
// Returns gorm.ErrRecordNotFound when no such user exists.
func (r *Repository) SetRole(ctx context.Context, email string, role entities.Role) (*entities.User, error) {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("email = ?", email).Update("role", role)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetByEmail(ctx, email)
}

// List returns all users, newest first.
func (r *Repository) List(ctx context.Context) ([]entities.User, error) {
	var list []entities.User
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

// ListWithStats returns every user with upload and library counters, newest first.
func (r *Repository) ListWithStats(ctx context.Context) ([]Stats, error) {
	var rows []Stats
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Select(`users.id, users.email, users.display_name, users.role, users.created_at,
			(SELECT COUNT(*) FROM books WHERE books.uploader_id = users.id) AS books_uploaded,
			(SELECT COUNT(*) FROM library_entries WHERE library_entries.user_id = users.id) AS library_items`).
		Order("users.created_at DESC, users.id DESC").
		Scan(&rows).Error
	return rows, err
}

// TopUploaders ranks users by number of uploaded books. Users with equal
// counts are ordered by ascending id so the ranking is stable.
func (r *Repository) TopUploaders(ctx context.Context, limit int) ([]UploaderRank, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []UploaderRank
	err := r.db.WithContext(ctx).Model(&entities.User{}).
		Select("users.id AS user_id, users.display_name, users.email, COUNT(books.id) AS book_count").
		Joins("LEFT JOIN books ON books.uploader_id = users.id").
		Group("users.id, users.display_name, users.email").
		Order("book_count DESC, users.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
