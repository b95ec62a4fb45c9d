package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/storage"
)

type sampleBook struct {
	Title, Author, Description, Category, Tags string
}

var sampleBooks = []sampleBook{
	{"Atomic Habits", "James Clear", "An Easy & Proven Way to Build Good Habits & Break Bad Ones", "Self-Help", "habits,productivity,psychology"},
	{"The Subtle Art of Not Giving a F*ck", "Mark Manson", "A Counterintuitive Approach to Living a Good Life", "Self-Help", "philosophy,life,mindfulness"},
	{"The Power of Your Subconscious Mind", "Joseph Murphy", "There are no limits to the prosperity, happiness, and peace of mind you can achieve", "Psychology", "psychology,mind,success"},
	{"Think and Grow Rich", "Napoleon Hill", "The classic guide to wealth and success", "Business", "business,wealth,success,motivation"},
	{"Rich Dad Poor Dad", "Robert Kiyosaki", "What the Rich Teach Their Kids About Money That the Poor and Middle Class Do Not", "Finance", "finance,investing,money,wealth"},
}

// SeedCommand creates an admin account and, given a PDF, a sample catalogue.
type SeedCommand struct {
	Config        *config.Config
	Out           io.Writer
	DatabasePath  string
	AdminEmail    string
	AdminPassword string
	PDFPath       string
}

func NewSeedCommand(cfg *config.Config) *SeedCommand {
	return &SeedCommand{Config: cfg, Out: os.Stdout}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to a sqlite database (overrides DATABASE_* settings)")
	fs.StringVar(&cmd.AdminEmail, "admin-email", "admin@example.com", "Email of the admin account")
	fs.StringVar(&cmd.AdminPassword, "admin-password", "admin123", "Password of the admin account when it is created")
	fs.StringVar(&cmd.PDFPath, "pdf", "", "PDF file uploaded for every sample book (books are skipped without it)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an admin account and sample books in an empty catalogue.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.AdminEmail = strings.ToLower(strings.TrimSpace(cmd.AdminEmail))
	if cmd.AdminEmail == "" {
		return fmt.Errorf("-admin-email must not be empty")
	}
	return nil
}

func (cmd *SeedCommand) Run(ctx context.Context) error {
	db, err := openDatabase(cmd.Config, cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	section(cmd.Out, "Seeding database")

	admin, err := cmd.ensureAdmin(ctx, db)
	if err != nil {
		return err
	}

	if cmd.PDFPath == "" {
		muted(cmd.Out, "No -pdf given, skipping sample books")
		return nil
	}

	count, err := books.NewRepository(db.DB).Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		muted(cmd.Out, "Catalogue already has %d books, skipping sample books", count)
		return nil
	}

	store, err := storage.FromConfig(ctx, cmd.Config.Storage)
	if err != nil {
		return fmt.Errorf("failed to open asset storage: %w", err)
	}
	content := services.NewContentService(db.DB, store, nil, nil)

	for _, sample := range sampleBooks {
		if err := cmd.uploadSample(ctx, content, admin.ID, sample); err != nil {
			return fmt.Errorf("failed to seed %q: %w", sample.Title, err)
		}
	}
	success(cmd.Out, "Seeded %d books", len(sampleBooks))
	return nil
}

// ensureAdmin creates the admin account, or promotes it when it exists.
func (cmd *SeedCommand) ensureAdmin(ctx context.Context, db *database.Database) (*entities.User, error) {
	repo := users.NewRepository(db.DB)

	user, err := repo.GetByEmail(ctx, cmd.AdminEmail)
	if err == nil {
		if !user.IsAdmin() {
			if user, err = repo.SetRole(ctx, user.Email, entities.RoleAdmin); err != nil {
				return nil, fmt.Errorf("failed to promote %s: %w", cmd.AdminEmail, err)
			}
		}
		warning(cmd.Out, "Admin %s already exists, password unchanged", user.Email)
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up %s: %w", cmd.AdminEmail, err)
	}

	hash, err := auth.HashPassword(cmd.AdminPassword, cmd.Config.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}
	user = &entities.User{
		Email:        cmd.AdminEmail,
		DisplayName:  "Admin",
		PasswordHash: hash,
		Role:         entities.RoleAdmin,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	success(cmd.Out, "Created admin %s", user.Email)
	return user, nil
}

func (cmd *SeedCommand) uploadSample(ctx context.Context, content *services.ContentService, uploaderID uint, sample sampleBook) error {
	f, err := os.Open(cmd.PDFPath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	book, err := content.CreateBook(ctx, services.CreateBookInput{
		UploaderID:  uploaderID,
		Title:       sample.Title,
		Author:      sample.Author,
		Description: sample.Description,
		Category:    sample.Category,
		Tags:        sample.Tags,
		PDF:         &services.FileUpload{File: f, Filename: filepath.Base(cmd.PDFPath), Size: info.Size()},
	})
	if err != nil {
		return err
	}

	muted(cmd.Out, "  %d. %s by %s", book.ID, book.Title, book.Author)
	return nil
}
