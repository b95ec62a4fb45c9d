package entities

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Email         string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	DisplayName   string    `gorm:"size:100;not null" json:"displayName"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	Role          Role      `gorm:"size:20;not null;default:user" json:"role"`
	Newsletter    bool      `gorm:"not null;default:false" json:"newsletter"`
	Accessibility bool      `gorm:"not null;default:false" json:"accessibility"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary returns the public projection embedded in books and reviews.
// Email is only included when withEmail is set.
func (u *User) Summary(withEmail bool) *UserSummary {
	if u == nil {
		return nil
	}
	s := &UserSummary{ID: u.ID, DisplayName: u.DisplayName}
	if withEmail {
		s.Email = u.Email
	}
	return s
}

// UserSummary is the minimal view of a user attached to other resources.
type UserSummary struct {
	ID          uint   `json:"id"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email,omitempty"`
}
