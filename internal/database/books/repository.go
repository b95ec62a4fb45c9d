// Package books provides database operations for book metadata, listing,
// view counters and the denormalized rating aggregate.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	page, total, err := repo.List(ctx, books.Filter{Search: "atomic"}, 10, 0)
package books

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/entities"
)

// likeEscaper makes a search term match literally inside a LIKE pattern.
// '!' is the escape character because a backslash literal is read
// differently by MySQL and by SQLite/Postgres.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Filter narrows a book listing. Empty fields are ignored.
type Filter struct {
	Category string
	Search   string
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID retrieves a book with its uploader.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).Preload("Uploader").First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns one page of books, newest first, together with the total
// number of books matching the filter.
func (r *Repository) List(ctx context.Context, filter Filter, limit, offset int) ([]entities.Book, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Book{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		query = query.Where("search_text LIKE ? ESCAPE '!'", pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []entities.Book
	err := query.Preload("Uploader").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// ListAll returns every book with its uploader, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Book, error) {
	var list []entities.Book
	err := r.db.WithContext(ctx).Preload("Uploader").Order("created_at DESC, id DESC").Find(&list).Error
	return list, err
}

// IDs returns the ids of all books.
func (r *Repository) IDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Order("id").Pluck("id", &ids).Error
	return ids, err
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Count(&count).Error
	return count, err
}

// IncrementViews adds one to the view counter in a single UPDATE.
func (r *Repository) IncrementViews(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a book together with its library entries, reviews and the
// votes on those reviews.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Model(&entities.Review{}).Select("id").Where("book_id = ?", id)
		if err := tx.Where("review_id IN (?)", reviewIDs).Delete(&entities.ReviewVote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", id).Delete(&entities.LibraryEntry{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// RecomputeRating stores a fresh mean and count over the book's current
// reviews. A book without reviews gets 0 and 0.
func (r *Repository) RecomputeRating(ctx context.Context, bookID uint) error {
	var agg struct {
		Average float64
		Total   int64
	}
	err := r.db.WithContext(ctx).Model(&entities.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("book_id = ?", bookID).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("id = ?", bookID).
		UpdateColumns(map[string]any{
			"average_rating": agg.Average,
			"review_count":   agg.Total,
		}).Error
}
