package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/metrics"
	"github.com/mrlokans/bookshelf/internal/services"
)

type ReviewsController struct {
	reviews *services.ReviewService
}

func NewReviewsController(reviews *services.ReviewService) *ReviewsController {
	return &ReviewsController{reviews: reviews}
}

type submitReviewRequest struct {
	BookID  uint   `json:"bookId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func (rc *ReviewsController) Submit(c *gin.Context) {
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookID == 0 {
		respondFailure(c, http.StatusBadRequest, "bookId is required")
		return
	}

	review, err := rc.reviews.SubmitReview(c.Request.Context(), auth.GetUserID(c), req.BookID, req.Rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.ReviewsSubmitted.Inc()
	respondCreated(c, review, "review submitted")
}

func (rc *ReviewsController) List(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	page, err := rc.reviews.ListReviews(c.Request.Context(), bookID, queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page, "")
}

// Mine returns the caller's review of a book; data is null when there is none.
func (rc *ReviewsController) Mine(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	review, err := rc.reviews.GetUserReview(c.Request.Context(), auth.GetUserID(c), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": review})
}

func (rc *ReviewsController) ToggleHelpful(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	voted, count, err := rc.reviews.ToggleHelpful(c.Request.Context(), auth.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"voted": voted, "helpfulCount": count}, "")
}

func (rc *ReviewsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := rc.reviews.UpdateReview(c.Request.Context(), auth.GetUserID(c), id, services.UpdateReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, review, "review updated")
}

func (rc *ReviewsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.reviews.DeleteReview(c.Request.Context(), auth.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "review deleted")
}
