package entities

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Book struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:255;not null;index" json:"title"`
	Author        string    `gorm:"size:255;not null" json:"author"`
	Description   string    `gorm:"type:text" json:"description"`
	Category      string    `gorm:"size:100;not null;index" json:"category"`
	Tags          string    `gorm:"size:500" json:"tags"`
	PDFPath       string    `gorm:"size:500;not null" json:"pdfPath"`
	CoverPath     string    `gorm:"size:500" json:"coverPath,omitempty"`
	PageCount     int       `json:"pageCount"`
	FileSize      int64     `json:"fileSize"`
	UploaderID    uint      `gorm:"index;not null" json:"uploaderId"`
	Views         int64     `gorm:"not null;default:0" json:"views"`
	AverageRating float64   `gorm:"not null;default:0" json:"averageRating"`
	ReviewCount   int       `gorm:"not null;default:0" json:"reviewCount"`
	SearchText    string    `gorm:"type:text" json:"-"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`

	Uploader     *User        `gorm:"foreignKey:UploaderID;constraint:OnDelete:CASCADE" json:"-"`
	UploaderInfo *UserSummary `gorm:"-" json:"uploader,omitempty"`
}

func (Book) TableName() string {
	return "books"
}

// BeforeSave refreshes SearchText. Folding happens here because SQLite's
// LOWER only folds ASCII letters.
func (b *Book) BeforeSave(*gorm.DB) error {
	b.SearchText = BookSearchText(b.Title, b.Author, b.Description)
	return nil
}

// BookSearchText is the lowercased text a catalogue search matches against.
func BookSearchText(title, author, description string) string {
	return strings.ToLower(title + "\n" + author + "\n" + description)
}

// AttachUploader fills the public uploader view from the preloaded Uploader.
func (b *Book) AttachUploader(withEmail bool) {
	if b.Uploader != nil {
		b.UploaderInfo = b.Uploader.Summary(withEmail)
	}
}

// LibraryEntry marks a book as saved to a user's personal collection.
type LibraryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_library_user_book;not null" json:"userId"`
	BookID    uint      `gorm:"uniqueIndex:idx_library_user_book;index;not null" json:"bookId"`
	CreatedAt time.Time `gorm:"index" json:"addedAt"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Book *Book `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book,omitempty"`
}

func (LibraryEntry) TableName() string {
	return "library_entries"
}
