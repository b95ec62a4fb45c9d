package entities

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"uniqueIndex:idx_review_user_book;not null" json:"userId"`
	BookID       uint      `gorm:"uniqueIndex:idx_review_user_book;index;not null" json:"bookId"`
	Rating       int       `gorm:"not null" json:"rating"`
	Comment      string    `gorm:"type:text;not null;default:''" json:"comment"`
	HelpfulCount int       `gorm:"not null;default:0;index" json:"helpfulCount"`
	CreatedAt    time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	User     *User        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Book     *Book        `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	Reviewer *UserSummary `gorm:"-" json:"user,omitempty"`
}

func (Review) TableName() string {
	return "reviews"
}

// AttachReviewer fills the public reviewer view from the preloaded User.
func (r *Review) AttachReviewer() {
	if r.User != nil {
		r.Reviewer = r.User.Summary(false)
	}
}

// ValidRating reports whether rating is within the accepted star range.
func ValidRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// ReviewVote records that a user marked a review as helpful.
type ReviewVote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_vote_user_review;not null" json:"userId"`
	ReviewID  uint      `gorm:"uniqueIndex:idx_vote_user_review;index;not null" json:"reviewId"`
	CreatedAt time.Time `json:"createdAt"`

	Review *Review `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ReviewVote) TableName() string {
	return "review_votes"
}
