package services

import "github.com/mrlokans/bookshelf/internal/apperr"

var (
	ErrBookNotFound      = apperr.NotFound("book")
	ErrReviewNotFound    = apperr.NotFound("review")
	ErrUserNotFound      = apperr.NotFound("user")
	ErrCoverNotFound     = apperr.NotFound("cover")
	ErrPDFRequired       = apperr.Validation("PDF file is required")
	ErrTitleRequired     = apperr.Validation("title is required")
	ErrAuthorRequired    = apperr.Validation("author is required")
	ErrCategoryRequired  = apperr.Validation("category is required")
	ErrInvalidRating     = apperr.Validation("rating must be between 1 and 5")
	ErrAlreadyInLibrary  = apperr.AlreadyExists("book already in library")
	ErrNotBookOwner      = apperr.Forbidden("you are not authorized to delete this book")
	ErrNotReviewAuthor   = apperr.Forbidden("you can only modify your own reviews")
	ErrAdminOnly         = apperr.Forbidden("access denied, admin only")
	ErrPrincipalRequired = apperr.Unauthorized("authentication required")
)
