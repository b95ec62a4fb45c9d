// Package reviews provides database operations for book reviews and the
// helpful votes cast on them.
//
// Methods that perform more than one statement expect to run inside a
// transaction owned by the caller; see the package documentation of database.
package reviews

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/bookshelf/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a review with its author.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Review, error) {
	var review entities.Review
	if err := r.db.WithContext(ctx).Preload("User").First(&review, id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// GetForUserBook returns the user's review of a book, or gorm.ErrRecordNotFound.
func (r *Repository) GetForUserBook(ctx context.Context, userID, bookID uint) (*entities.Review, error) {
	var review entities.Review
	err := r.db.WithContext(ctx).Preload("User").
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Upsert creates the user's review of a book or overwrites rating and comment
// of the existing one, keyed on the (user_id, book_id) unique index.
func (r *Repository) Upsert(ctx context.Context, userID, bookID uint, rating int, comment string) (*entities.Review, error) {
	review := &entities.Review{
		UserID:  userID,
		BookID:  bookID,
		Rating:  rating,
		Comment: comment,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
	}).Create(review).Error
	if err != nil {
		return nil, err
	}

	return r.GetForUserBook(ctx, userID, bookID)
}

// Update writes the given columns of a review.
func (r *Repository) Update(ctx context.Context, id uint, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&entities.Review{ID: id}).Updates(fields).Error
}

// Delete removes a review and the votes cast on it.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Where("review_id = ?", id).Delete(&entities.ReviewVote{}).Error; err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&entities.Review{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListForBook returns one page of a book's reviews ordered by helpful votes,
// then newest first, together with the total number of reviews.
func (r *Repository) ListForBook(ctx context.Context, bookID uint, limit, offset int) ([]entities.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.Review{}).Where("book_id = ?", bookID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []entities.Review
	err := query.Preload("User").
		Order("helpful_count DESC, created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ToggleVote removes the user's helpful vote when present and adds it
// otherwise, adjusting the review's counter by one in the same direction.
// It returns whether a vote exists afterwards and the new counter value.
func (r *Repository) ToggleVote(ctx context.Context, userID, reviewID uint) (bool, int, error) {
	db := r.db.WithContext(ctx)

	var vote entities.ReviewVote
	err := db.Where("user_id = ? AND review_id = ?", userID, reviewID).First(&vote).Error
	voted := false

	switch {
	case err == nil:
		if err := db.Delete(&vote).Error; err != nil {
			return false, 0, err
		}
		err = db.Model(&entities.Review{}).Where("id = ?", reviewID).
			UpdateColumn("helpful_count", gorm.Expr("CASE WHEN helpful_count > 0 THEN helpful_count - 1 ELSE 0 END")).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&entities.ReviewVote{UserID: userID, ReviewID: reviewID}).Error; err != nil {
			return false, 0, err
		}
		voted = true
		err = db.Model(&entities.Review{}).Where("id = ?", reviewID).
			UpdateColumn("helpful_count", gorm.Expr("helpful_count + ?", 1)).Error
	}
	if err != nil {
		return false, 0, err
	}

	var count int
	if err := db.Model(&entities.Review{}).Where("id = ?", reviewID).Select("helpful_count").Scan(&count).Error; err != nil {
		return false, 0, err
	}
	return voted, count, nil
}
