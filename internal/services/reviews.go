package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/reviews"
	"github.com/mrlokans/bookshelf/internal/entities"
)

type ReviewPagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalReviews int64 `json:"totalReviews"`
	HasMore      bool  `json:"hasMore"`
}

type ReviewPage struct {
	Reviews    []entities.Review `json:"reviews"`
	Pagination ReviewPagination  `json:"pagination"`
}

// UpdateReviewInput holds the fields to change; nil fields are left as is.
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

// RatingsReport summarizes a full aggregate recomputation.
type RatingsReport struct {
	BooksProcessed int `json:"booksProcessed"`
	BooksFailed    int `json:"booksFailed"`
}

// ReviewService manages reviews, helpful votes and the rating aggregate
// cached on each book. Every write that changes a book's reviews recomputes
// the aggregate in the same transaction.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// SubmitReview creates or replaces the user's review of a book.
func (s *ReviewService) SubmitReview(ctx context.Context, userID, bookID uint, rating int, comment string) (*entities.Review, error) {
	if !entities.ValidRating(rating) {
		return nil, ErrInvalidRating
	}

	var review *entities.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)

		exists, err := bookRepo.Exists(ctx, bookID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrBookNotFound
		}

		review, err = reviews.NewRepository(tx).Upsert(ctx, userID, bookID, rating, strings.TrimSpace(comment))
		if err != nil {
			return err
		}
		return bookRepo.RecomputeRating(ctx, bookID)
	})
	if err != nil {
		if errors.Is(err, ErrBookNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("submit review: %w", err)
	}

	log.WithFields(log.Fields{"review_id": review.ID, "user_id": userID, "book_id": bookID}).Info("Review submitted")
	review.AttachReviewer()
	return review, nil
}

// ListReviews returns one page of a book's reviews, most helpful first.
func (s *ReviewService) ListReviews(ctx context.Context, bookID uint, page, pageSize int) (*ReviewPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	list, total, err := reviews.NewRepository(s.db).ListForBook(ctx, bookID, pageSize, pageOffset(page, pageSize))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	for i := range list {
		list[i].AttachReviewer()
	}
	if list == nil {
		list = []entities.Review{}
	}

	pages := totalPages(total, pageSize)
	return &ReviewPage{
		Reviews: list,
		Pagination: ReviewPagination{
			CurrentPage:  page,
			TotalPages:   pages,
			TotalReviews: total,
			HasMore:      page < pages,
		},
	}, nil
}

// ToggleHelpful flips the user's helpful vote on a review and returns the
// resulting vote state and counter. Two concurrent first votes by the same
// user can both miss the existing row; the loser hits the unique index and
// is retried once, which then sees the committed vote and removes it.
func (s *ReviewService) ToggleHelpful(ctx context.Context, userID, reviewID uint) (bool, int, error) {
	voted, count, err := s.toggleVote(ctx, userID, reviewID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		log.WithFields(log.Fields{"user_id": userID, "review_id": reviewID}).Debug("Helpful vote raced, retrying")
		voted, count, err = s.toggleVote(ctx, userID, reviewID)
	}
	if err != nil {
		if errors.Is(err, ErrReviewNotFound) {
			return false, 0, err
		}
		return false, 0, fmt.Errorf("toggle helpful: %w", err)
	}
	return voted, count, nil
}

func (s *ReviewService) toggleVote(ctx context.Context, userID, reviewID uint) (voted bool, count int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := reviews.NewRepository(tx)
		if _, err := repo.GetByID(ctx, reviewID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}

		var err error
		voted, count, err = repo.ToggleVote(ctx, userID, reviewID)
		return err
	})
	return voted, count, err
}

// UpdateReview applies a partial update to the caller's own review.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID uint, in UpdateReviewInput) (*entities.Review, error) {
	if in.Rating != nil && !entities.ValidRating(*in.Rating) {
		return nil, ErrInvalidRating
	}

	var updated *entities.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := reviews.NewRepository(tx)

		review, err := s.ownReview(ctx, repo, userID, reviewID)
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if in.Rating != nil {
			fields["rating"] = *in.Rating
		}
		if in.Comment != nil {
			fields["comment"] = strings.TrimSpace(*in.Comment)
		}
		if err := repo.Update(ctx, review.ID, fields); err != nil {
			return err
		}
		if err := books.NewRepository(tx).RecomputeRating(ctx, review.BookID); err != nil {
			return err
		}

		updated, err = repo.GetByID(ctx, review.ID)
		return err
	})
	if err != nil {
		return nil, wrapReviewErr("update review", err)
	}

	updated.AttachReviewer()
	return updated, nil
}

// DeleteReview removes the caller's own review and its votes.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := reviews.NewRepository(tx)

		review, err := s.ownReview(ctx, repo, userID, reviewID)
		if err != nil {
			return err
		}
		if err := repo.Delete(ctx, review.ID); err != nil {
			return err
		}
		return books.NewRepository(tx).RecomputeRating(ctx, review.BookID)
	})
	if err != nil {
		return wrapReviewErr("delete review", err)
	}

	log.WithFields(log.Fields{"review_id": reviewID, "user_id": userID}).Info("Review deleted")
	return nil
}

// GetUserReview returns the user's review of a book, or nil when there is none.
func (s *ReviewService) GetUserReview(ctx context.Context, userID, bookID uint) (*entities.Review, error) {
	review, err := reviews.NewRepository(s.db).GetForUserBook(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user review: %w", err)
	}
	review.AttachReviewer()
	return review, nil
}

// RecalculateRatings recomputes the aggregate of every book. A failure on one
// book is logged and does not stop the others.
func (s *ReviewService) RecalculateRatings(ctx context.Context) (RatingsReport, error) {
	var report RatingsReport

	bookRepo := books.NewRepository(s.db)
	ids, err := bookRepo.IDs(ctx)
	if err != nil {
		return report, fmt.Errorf("list book ids: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := bookRepo.RecomputeRating(ctx, id); err != nil {
			log.WithError(err).WithField("book_id", id).Warn("Failed to recompute rating")
			report.BooksFailed++
			continue
		}
		report.BooksProcessed++
	}
	return report, nil
}

func (s *ReviewService) ownReview(ctx context.Context, repo *reviews.Repository, userID, reviewID uint) (*entities.Review, error) {
	review, err := repo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.UserID != userID {
		return nil, ErrNotReviewAuthor
	}
	return review, nil
}

func wrapReviewErr(op string, err error) error {
	if errors.Is(err, ErrReviewNotFound) || errors.Is(err, ErrNotReviewAuthor) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
